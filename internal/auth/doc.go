// Package auth provides authentication for the beacon backend.
//
// It implements:
//   - Argon2id password hashing and constant-time verification
//   - Stateless HS256 session tokens (subject, issued-at, expiry claims)
//   - SQLite-backed user accounts with first-run operator seeding
//
// The user namespace is flat: any authenticated subject may call any
// protected endpoint. Accounts are provisioned out-of-band (or via the
// first-run seed); the HTTP API never creates, mutates, or deletes users.
//
// Tokens are self-contained and not persisted. Expiry is the only
// invalidation mechanism - there is no revocation list, so the token TTL
// is deliberately short (2 hours by default).
package auth

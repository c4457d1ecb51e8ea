// Package database provides SQLite connection management and schema
// migrations for the beacon backend.
//
// All persistent stores (users, beacons, messages, camera configuration)
// share a single SQLite database opened once at startup. The connection
// pool is limited to a single connection so that read-modify-write cycles
// in the stores serialize in-process, which is the concurrency contract
// the merge-upsert and partial-update operations depend on.
//
// Schema migrations are embedded into the binary via the migrations
// package and applied at startup, each in its own transaction.
package database

package auth

import (
	"context"
	"errors"
	"fmt"
)

// CredentialStore verifies username/password pairs against stored
// password hashes.
type CredentialStore struct {
	users UserRepository
}

// NewCredentialStore creates a credential store backed by a user repository.
func NewCredentialStore(users UserRepository) *CredentialStore {
	return &CredentialStore{users: users}
}

// Verify checks a username/password pair.
//
// It fails closed: an unknown username returns false without error, so
// callers cannot distinguish a missing account from a wrong password.
// The stored hash and the plaintext are never returned or logged.
func (s *CredentialStore) Verify(ctx context.Context, username, password string) (bool, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		// Corrupt or unsupported hash format fails closed.
		return false, fmt.Errorf("verifying password: %w", err)
	}
	return ok, nil
}

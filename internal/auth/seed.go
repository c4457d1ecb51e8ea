package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// seedPasswordBytes is the number of random bytes for the seed operator password.
const seedPasswordBytes = 16

// SeedOperator creates the initial operator account on first boot if no
// users exist. The generated password is logged - it must be changed
// out-of-band. Returns the generated password (empty string if seeding
// was skipped).
func SeedOperator(ctx context.Context, userRepo UserRepository, logger *slog.Logger) (string, error) {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Info("users exist, skipping operator seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	operator := &User{
		Username:     "operator",
		PasswordHash: hash,
	}

	if err := userRepo.Create(ctx, operator); err != nil {
		return "", fmt.Errorf("creating seed operator: %w", err)
	}

	logger.Warn("seed operator account created",
		"username", "operator",
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}

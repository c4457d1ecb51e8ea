package auth

import "errors"

// Domain errors for the auth package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, auth.ErrTokenExpired) {
//	    // handle expired session
//	}
var (
	// ErrTokenExpired is returned when a token's expiry claim has passed.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrTokenInvalid is returned when a token fails signature verification,
	// uses an unexpected signing method, is structurally malformed, or is
	// missing required claims.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrUserNotFound is returned when a username does not exist.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrUsernameExists is returned when creating a user with a username
	// that is already taken.
	ErrUsernameExists = errors.New("auth: username already exists")
)

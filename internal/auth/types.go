package auth

import "time"

// User represents an authenticated account.
//
// Users are provisioned out-of-band; the API only ever reads them at
// login time.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialised
	CreatedAt    time.Time `json:"created_at"`
}

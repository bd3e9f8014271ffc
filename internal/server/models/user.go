// Package models defines server-only records persisted in the database.
// Domain records shared with the client live in internal/models.
package models

import "time"

// User is an account able to sign in. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

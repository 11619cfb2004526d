// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a verified user identity. An account only comes into existence
// once ownership of the email address has been proven by consuming a
// registration one-time code (or through a trusted identity provider).
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

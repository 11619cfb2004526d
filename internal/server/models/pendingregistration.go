package models

import "time"

// PendingRegistration stages a signup until the email address is verified.
// At most one pending registration exists per email; re-submitting replaces
// the previous one. The password is stored pre-hashed, never raw.
type PendingRegistration struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

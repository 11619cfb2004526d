package models

import "time"

// One-time code purposes. Registration codes are owned by a
// PendingRegistration, password-reset codes by an Account.
const (
	PurposeRegistration  = "registration"
	PurposePasswordReset = "password_reset"
)

// OneTimeCode is a short-lived numeric code proving control of an email
// address. A code is valid while it is unused and not yet expired; the first
// successful verification consumes it. Issuing a new code for the same owner
// supersedes (marks used) all earlier unused ones.
type OneTimeCode struct {
	ID        string
	Purpose   string
	OwnerID   string
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
	IsUsed    bool
}

// Valid reports whether the code can still be verified at the given instant.
func (c *OneTimeCode) Valid(now time.Time) bool {
	return !c.IsUsed && now.Before(c.ExpiresAt)
}

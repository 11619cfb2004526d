package models

import "time"

// Device is a push-notification registration token bound to an account.
type Device struct {
	ID             string
	AccountID      string
	RegistrationID string
	CreatedAt      time.Time
}

// Package common defines shared constants and sentinel errors used across
// the Clamea server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Registration and password-reset flow errors.
	ErrOTPExpired            = errors.New("code expired")
	ErrNoPendingRegistration = errors.New("no pending registration")
	ErrAccountNotVerified    = errors.New("account not verified")
	ErrDeliveryFailed        = errors.New("delivery failed")

	// Auth errors (invalid, malformed or revoked token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

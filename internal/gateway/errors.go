package gateway

import (
	"errors"
)

// Sentinel errors for the failure kinds the client core distinguishes.
// Implementations wrap these so callers can classify failures with
// errors.Is; anything else passes through as an unknown failure.
var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrWrongPassword     = errors.New("wrong password")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailAlreadyInUse = errors.New("email already in use")
	ErrWeakPassword      = errors.New("weak password")
	ErrInvalidActionCode = errors.New("invalid or used action code")
	ErrExpiredResetCode  = errors.New("expired reset code")
	ErrRateLimited       = errors.New("too many attempts")
	ErrNotSignedIn       = errors.New("no active session")
)

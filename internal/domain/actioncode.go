package domain

import (
	"time"
)

// ActionMode identifies what an out-of-band action code is for.
type ActionMode string

const (
	// ActionVerifyEmail marks a code that confirms an email address.
	ActionVerifyEmail ActionMode = "verifyEmail"
	// ActionResetPassword marks a code that authorizes a password reset.
	ActionResetPassword ActionMode = "resetPassword"
)

// IsValidActionMode checks whether the given mode string is recognized.
func IsValidActionMode(mode string) bool {
	switch ActionMode(mode) {
	case ActionVerifyEmail, ActionResetPassword:
		return true
	}
	return false
}

// ActionCode is a single-use out-of-band code delivered by email. A code is
// consumed by exactly one successful confirmation; reuse or expiry yields an
// invalid-code error.
type ActionCode struct {
	Code      string     `json:"code"`
	Mode      ActionMode `json:"mode"`
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the code's lifetime has elapsed at the given time.
func (c *ActionCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

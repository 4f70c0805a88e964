package domain

import (
	"time"
)

// Identity is the identity-provider view of an authenticated account.
// ID is opaque and immutable for the lifetime of the account. EmailVerified
// only ever transitions false to true, and only through a confirmed
// verification link; clients never clear it.
type Identity struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	DisplayName   string `json:"display_name,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
}

// SessionIdentity is the application-level view of the signed-in account
// exposed to consumers of the session store. It is an immutable value:
// every session change constructs a fresh one.
type SessionIdentity struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	DisplayName   string `json:"display_name,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	Role          string `json:"role"`
}

// NewSessionIdentity derives a SessionIdentity from a provider identity.
// Role is always RoleUser; the backend does not distinguish roles yet.
func NewSessionIdentity(id *Identity) *SessionIdentity {
	return &SessionIdentity{
		UID:           id.ID,
		Email:         id.Email,
		DisplayName:   id.DisplayName,
		PhotoURL:      id.PhotoURL,
		EmailVerified: id.EmailVerified,
		Role:          RoleUser,
	}
}

// User represents a registered account as stored by the identity backend.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	DisplayName   string    `json:"display_name,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Identity returns the provider view of the user.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:            u.ID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
	}
}

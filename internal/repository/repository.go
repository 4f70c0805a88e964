package repository

import (
	"context"
	"time"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// MarkEmailVerified flips the user's email_verified flag to true.
	MarkEmailVerified(ctx context.Context, id string) error
}

// ActionCodeRepository stores single-use out-of-band action codes with a
// bounded lifetime.
type ActionCodeRepository interface {
	// Create stores a new action code with the given time to live.
	Create(ctx context.Context, code *domain.ActionCode, ttl time.Duration) error

	// Peek retrieves an action code without consuming it.
	Peek(ctx context.Context, code string) (*domain.ActionCode, error)

	// Consume atomically retrieves and deletes an action code; a second
	// consume of the same code fails.
	Consume(ctx context.Context, code string) (*domain.ActionCode, error)
}

// SessionRepository tracks active session token IDs so tokens can be revoked
// before expiry.
type SessionRepository interface {
	// Create registers a session token ID for the user with the given time
	// to live.
	Create(ctx context.Context, userID, tokenID string, ttl time.Duration) error

	// Exists reports whether the session token ID is still active.
	Exists(ctx context.Context, tokenID string) (bool, error)

	// Revoke removes a single session.
	Revoke(ctx context.Context, tokenID string) error

	// RevokeByUserID removes every active session for the user.
	RevokeByUserID(ctx context.Context, userID string) error
}

// GateRepository tracks issued access-gate sessions for the beta wall.
type GateRepository interface {
	// Create registers a gate session token with the given time to live.
	Create(ctx context.Context, token string, ttl time.Duration) error

	// Exists reports whether the gate session token is valid.
	Exists(ctx context.Context, token string) (bool, error)
}

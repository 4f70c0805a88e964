// Package gateway defines the capability interface between the client core
// and an identity provider. The session store, auth flow, and action-link
// handler are written against this interface only; the concrete provider is
// injected at wiring time.
package gateway

import (
	"context"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
)

// Listener receives session change notifications. identity is nil when no
// account is signed in.
type Listener func(identity *domain.Identity)

// UnsubscribeFunc detaches a listener registered with Subscribe.
type UnsubscribeFunc func()

// IdentityGateway is the set of identity-provider capabilities the client
// core depends on. Implementations must be safe for concurrent use.
//
// Subscribe delivers the current identity (or nil) to the listener
// immediately on registration, and again after every session change. The
// returned function detaches the listener.
type IdentityGateway interface {
	// SignIn authenticates with email and password and establishes a session.
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)

	// CreateAccount registers a new account and establishes a session for it.
	CreateAccount(ctx context.Context, email, password string) (*domain.Identity, error)

	// UpdateDisplayName sets the display name on the current account.
	UpdateDisplayName(ctx context.Context, displayName string) error

	// SendVerificationEmail requests a verification email for the current
	// account.
	SendVerificationEmail(ctx context.Context) error

	// ConfirmVerification consumes a verifyEmail action code.
	ConfirmVerification(ctx context.Context, code string) error

	// RequestPasswordReset requests a password reset email. Implementations
	// must not reveal whether the email is registered unless the provider
	// itself does.
	RequestPasswordReset(ctx context.Context, email string) error

	// VerifyResetCode checks a resetPassword action code without consuming
	// it and returns the email it targets.
	VerifyResetCode(ctx context.Context, code string) (string, error)

	// ConfirmPasswordReset consumes a resetPassword action code and sets the
	// new password.
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error

	// SignOut terminates the current session. Signing out while already
	// signed out is a no-op.
	SignOut(ctx context.Context) error

	// Refresh re-reads the current account from the provider and notifies
	// listeners, picking up server-side changes such as email verification.
	Refresh(ctx context.Context) error

	// Subscribe registers a session change listener.
	Subscribe(listener Listener) UnsubscribeFunc
}

// Package gatewaytest provides a deterministic in-memory IdentityGateway for
// tests and local wiring. It mimics provider semantics closely enough to
// exercise the client core: sessions, verification and reset codes, and the
// gateway error kinds.
package gatewaytest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
	"github.com/aoinoikaz/TruthCapture/internal/gateway"
)

type account struct {
	id          string
	email       string
	password    string
	displayName string
	verified    bool
}

type actionCode struct {
	mode     domain.ActionMode
	email    string
	consumed bool
	expired  bool
}

// Fake is an in-memory IdentityGateway. The zero value is not usable; create
// one with New.
type Fake struct {
	mu        sync.Mutex
	accounts  map[string]*account
	codes     map[string]*actionCode
	current   *account
	listeners map[int]gateway.Listener
	nextSub   int
	nextUID   int
	nextCode  int

	// Calls records gateway method invocations in order, for asserting call
	// sequencing.
	Calls []string

	// Per-operation error overrides. When set, the operation fails with the
	// given error and has no other effect.
	SignInErr            error
	CreateAccountErr     error
	UpdateDisplayNameErr error
	SendVerificationErr  error
	ResetRequestErr      error
	SignOutErr           error
}

// New creates an empty fake gateway.
func New() *Fake {
	return &Fake{
		accounts:  make(map[string]*account),
		codes:     make(map[string]*actionCode),
		listeners: make(map[int]gateway.Listener),
	}
}

// SeedAccount registers an account directly, bypassing the sign-up flow.
func (f *Fake) SeedAccount(email, password string, verified bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUID++
	f.accounts[email] = &account{
		id:       fmt.Sprintf("uid-%d", f.nextUID),
		email:    email,
		password: password,
		verified: verified,
	}
}

// IssueCode mints an action code for the given email, as if the provider had
// sent the corresponding email.
func (f *Fake) IssueCode(mode domain.ActionMode, email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueCodeLocked(mode, email)
}

func (f *Fake) issueCodeLocked(mode domain.ActionMode, email string) string {
	f.nextCode++
	code := fmt.Sprintf("code-%d", f.nextCode)
	f.codes[code] = &actionCode{mode: mode, email: email}
	return code
}

// ExpireCode marks an issued reset code as expired.
func (f *Fake) ExpireCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.codes[code]; ok {
		c.expired = true
	}
}

// CurrentEmail returns the email of the signed-in account, or "".
func (f *Fake) CurrentEmail() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return ""
	}
	return f.current.email
}

func (f *Fake) record(call string) {
	f.Calls = append(f.Calls, call)
}

func (f *Fake) identityLocked() *domain.Identity {
	if f.current == nil {
		return nil
	}
	return &domain.Identity{
		ID:            f.current.id,
		Email:         f.current.email,
		EmailVerified: f.current.verified,
		DisplayName:   f.current.displayName,
	}
}

// notifyLocked snapshots the listener set and identity under the lock, then
// delivers outside it so listeners can call back into the fake.
func (f *Fake) notifyLocked() {
	id := f.identityLocked()
	listeners := make([]gateway.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()
	for _, l := range listeners {
		l(id)
	}
	f.mu.Lock()
}

// SignIn implements gateway.IdentityGateway.
func (f *Fake) SignIn(_ context.Context, email, password string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SignIn")

	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("sign in: %w", gateway.ErrInvalidEmail)
	}
	acct, ok := f.accounts[email]
	if !ok {
		return nil, fmt.Errorf("sign in: %w", gateway.ErrUserNotFound)
	}
	if acct.password != password {
		return nil, fmt.Errorf("sign in: %w", gateway.ErrWrongPassword)
	}

	f.current = acct
	id := f.identityLocked()
	f.notifyLocked()
	return id, nil
}

// CreateAccount implements gateway.IdentityGateway. New accounts start
// unverified and signed in, matching hosted provider behavior.
func (f *Fake) CreateAccount(_ context.Context, email, password string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateAccount")

	if f.CreateAccountErr != nil {
		return nil, f.CreateAccountErr
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("create account: %w", gateway.ErrInvalidEmail)
	}
	if _, exists := f.accounts[email]; exists {
		return nil, fmt.Errorf("create account: %w", gateway.ErrEmailAlreadyInUse)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("create account: %w", gateway.ErrWeakPassword)
	}

	f.nextUID++
	acct := &account{
		id:       fmt.Sprintf("uid-%d", f.nextUID),
		email:    email,
		password: password,
	}
	f.accounts[email] = acct
	f.current = acct
	id := f.identityLocked()
	f.notifyLocked()
	return id, nil
}

// UpdateDisplayName implements gateway.IdentityGateway.
func (f *Fake) UpdateDisplayName(_ context.Context, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateDisplayName")

	if f.UpdateDisplayNameErr != nil {
		return f.UpdateDisplayNameErr
	}
	if f.current == nil {
		return gateway.ErrNotSignedIn
	}
	f.current.displayName = displayName
	return nil
}

// SendVerificationEmail implements gateway.IdentityGateway.
func (f *Fake) SendVerificationEmail(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SendVerificationEmail")

	if f.SendVerificationErr != nil {
		return f.SendVerificationErr
	}
	if f.current == nil {
		return gateway.ErrNotSignedIn
	}
	f.issueCodeLocked(domain.ActionVerifyEmail, f.current.email)
	return nil
}

// ConfirmVerification implements gateway.IdentityGateway.
func (f *Fake) ConfirmVerification(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ConfirmVerification")

	c, ok := f.codes[code]
	if !ok || c.consumed || c.mode != domain.ActionVerifyEmail {
		return fmt.Errorf("confirm verification: %w", gateway.ErrInvalidActionCode)
	}
	c.consumed = true
	if acct, ok := f.accounts[c.email]; ok {
		acct.verified = true
	}
	return nil
}

// RequestPasswordReset implements gateway.IdentityGateway.
func (f *Fake) RequestPasswordReset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RequestPasswordReset")

	if f.ResetRequestErr != nil {
		return f.ResetRequestErr
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("request password reset: %w", gateway.ErrInvalidEmail)
	}
	if _, ok := f.accounts[email]; !ok {
		return fmt.Errorf("request password reset: %w", gateway.ErrUserNotFound)
	}
	f.issueCodeLocked(domain.ActionResetPassword, email)
	return nil
}

// VerifyResetCode implements gateway.IdentityGateway.
func (f *Fake) VerifyResetCode(_ context.Context, code string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("VerifyResetCode")

	c, ok := f.codes[code]
	if !ok || c.consumed || c.mode != domain.ActionResetPassword {
		return "", fmt.Errorf("verify reset code: %w", gateway.ErrInvalidActionCode)
	}
	if c.expired {
		return "", fmt.Errorf("verify reset code: %w", gateway.ErrExpiredResetCode)
	}
	return c.email, nil
}

// ConfirmPasswordReset implements gateway.IdentityGateway.
func (f *Fake) ConfirmPasswordReset(_ context.Context, code, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ConfirmPasswordReset")

	c, ok := f.codes[code]
	if !ok || c.consumed || c.mode != domain.ActionResetPassword {
		return fmt.Errorf("confirm password reset: %w", gateway.ErrInvalidActionCode)
	}
	if c.expired {
		return fmt.Errorf("confirm password reset: %w", gateway.ErrExpiredResetCode)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("confirm password reset: %w", gateway.ErrWeakPassword)
	}
	c.consumed = true
	if acct, ok := f.accounts[c.email]; ok {
		acct.password = newPassword
	}
	return nil
}

// SignOut implements gateway.IdentityGateway.
func (f *Fake) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SignOut")

	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	if f.current == nil {
		return nil
	}
	f.current = nil
	f.notifyLocked()
	return nil
}

// Refresh implements gateway.IdentityGateway.
func (f *Fake) Refresh(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Refresh")

	f.notifyLocked()
	return nil
}

// Subscribe implements gateway.IdentityGateway. The listener is invoked
// synchronously with the current identity before Subscribe returns.
func (f *Fake) Subscribe(listener gateway.Listener) gateway.UnsubscribeFunc {
	f.mu.Lock()
	f.nextSub++
	key := f.nextSub
	f.listeners[key] = listener
	id := f.identityLocked()
	f.mu.Unlock()

	listener(id)

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, key)
	}
}

var _ gateway.IdentityGateway = (*Fake)(nil)

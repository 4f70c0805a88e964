// Package actionlink handles the landing page for emailed action links:
// email verification and password reset. A link carries a mode and an
// opaque one-time code as query parameters.
package actionlink

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
	"github.com/aoinoikaz/TruthCapture/internal/gateway"
	"github.com/aoinoikaz/TruthCapture/internal/password"
	"github.com/aoinoikaz/TruthCapture/internal/session"
)

// Query parameter names on action links.
const (
	ParamMode = "mode"
	ParamCode = "oobCode"
)

// ErrInvalidLink is returned when the link is missing its mode or code, or
// carries a mode this handler does not know.
var ErrInvalidLink = errors.New("invalid action link")

// Params are the parsed action-link parameters.
type Params struct {
	Mode domain.ActionMode
	Code string
}

// ParseParams extracts and validates the action-link query parameters.
func ParseParams(query url.Values) (Params, error) {
	mode := query.Get(ParamMode)
	code := query.Get(ParamCode)
	if code == "" || !domain.IsValidActionMode(mode) {
		return Params{}, ErrInvalidLink
	}
	return Params{Mode: domain.ActionMode(mode), Code: code}, nil
}

// Status is the display state of the action-link page.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	// StatusReady means a reset code was verified and the new-password form
	// may be shown.
	StatusReady   Status = "ready"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// View is the consumer snapshot of a controller.
type View struct {
	Status  Status
	Message string
	// Email is the address a verified reset code targets.
	Email string
}

// Config tunes the controller's redirect timer.
type Config struct {
	// RedirectDelay is how long a success view lingers before navigating
	// back to the auth entry point.
	RedirectDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.RedirectDelay <= 0 {
		c.RedirectDelay = 3 * time.Second
	}
	return c
}

// Controller drives one action-link page load. Create a fresh controller per
// link; codes are single-use and a controller never retries a code it has
// seen fail.
type Controller struct {
	gw       gateway.IdentityGateway
	navigate session.NavigateFunc
	cfg      Config
	logger   *slog.Logger

	mu      sync.Mutex
	params  Params
	status  Status
	message string
	email   string

	// confirmed guards the one verification attempt; re-entering Load with
	// the same controller must not confirm twice.
	confirmed bool
	// codeDead marks the reset code as rejected; further submissions with
	// this controller are refused locally.
	codeDead bool

	timerCancel context.CancelFunc
	closed      bool
}

// NewController creates an action-link controller.
func NewController(gw gateway.IdentityGateway, navigate session.NavigateFunc, cfg Config, logger *slog.Logger) *Controller {
	return &Controller{
		gw:       gw,
		navigate: navigate,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		status:   StatusIdle,
	}
}

// View returns the current display state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{Status: c.status, Message: c.message, Email: c.email}
}

// Close cancels any pending redirect.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
}

// Load parses the link parameters and runs the mode's entry action. For
// verifyEmail the code is confirmed exactly once; for resetPassword the code
// is checked and the target email resolved.
func (c *Controller) Load(ctx context.Context, query url.Values) error {
	params, err := ParseParams(query)
	if err != nil {
		c.mu.Lock()
		c.status = StatusError
		c.message = "This link is invalid or has expired."
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.params = params
	c.mu.Unlock()

	switch params.Mode {
	case domain.ActionVerifyEmail:
		c.verifyEmail(ctx, params.Code)
	case domain.ActionResetPassword:
		c.checkResetCode(ctx, params.Code)
	}
	return nil
}

func (c *Controller) verifyEmail(ctx context.Context, code string) {
	c.mu.Lock()
	if c.confirmed {
		c.mu.Unlock()
		return
	}
	c.confirmed = true
	c.status = StatusProcessing
	c.mu.Unlock()

	if err := c.gw.ConfirmVerification(ctx, code); err != nil {
		c.logger.InfoContext(ctx, "email verification failed",
			slog.String("error", err.Error()),
		)
		c.mu.Lock()
		c.status = StatusError
		c.message = verifyMessageFor(err)
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.status = StatusSuccess
	c.message = "Email verified! You can now log in."
	tctx := c.newTimerLocked()
	c.mu.Unlock()

	go c.redirectAfterDelay(tctx)
}

func (c *Controller) checkResetCode(ctx context.Context, code string) {
	c.mu.Lock()
	c.status = StatusProcessing
	c.mu.Unlock()

	email, err := c.gw.VerifyResetCode(ctx, code)
	if err != nil {
		c.mu.Lock()
		c.status = StatusError
		c.message = resetMessageFor(err)
		c.codeDead = true
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.status = StatusReady
	c.email = email
	c.mu.Unlock()
}

// SubmitNewPassword completes a password reset. The confirmation must match
// and the password must satisfy the policy before the code is consumed. A
// code that was rejected once is never sent again.
func (c *Controller) SubmitNewPassword(ctx context.Context, newPassword, confirm string) error {
	c.mu.Lock()
	if c.codeDead {
		c.status = StatusError
		c.message = "This reset link has expired or is invalid"
		c.mu.Unlock()
		return nil
	}
	code := c.params.Code

	if newPassword != confirm {
		c.status = StatusError
		c.message = "Passwords do not match"
		c.mu.Unlock()
		return nil
	}
	if !password.Evaluate(newPassword, confirm).Valid() {
		c.status = StatusError
		c.message = "Password does not meet requirements"
		c.mu.Unlock()
		return nil
	}

	c.status = StatusProcessing
	c.message = ""
	c.mu.Unlock()

	if err := c.gw.ConfirmPasswordReset(ctx, code, newPassword); err != nil {
		c.mu.Lock()
		c.status = StatusError
		c.message = resetMessageFor(err)
		if errors.Is(err, gateway.ErrInvalidActionCode) || errors.Is(err, gateway.ErrExpiredResetCode) {
			c.codeDead = true
		}
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.status = StatusSuccess
	c.message = "Password reset successfully! You can now log in."
	tctx := c.newTimerLocked()
	c.mu.Unlock()

	go c.redirectAfterDelay(tctx)
	return nil
}

func (c *Controller) newTimerLocked() context.Context {
	if c.timerCancel != nil {
		c.timerCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.timerCancel = cancel
	return ctx
}

func (c *Controller) redirectAfterDelay(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(c.cfg.RedirectDelay):
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	if c.navigate != nil {
		c.navigate(session.PathAuth)
	}
}

func verifyMessageFor(err error) string {
	if errors.Is(err, gateway.ErrInvalidActionCode) || errors.Is(err, gateway.ErrExpiredResetCode) {
		return "This verification link has already been used or is invalid"
	}
	return err.Error()
}

func resetMessageFor(err error) string {
	switch {
	case errors.Is(err, gateway.ErrInvalidActionCode), errors.Is(err, gateway.ErrExpiredResetCode):
		return "This reset link has expired or is invalid"
	case errors.Is(err, gateway.ErrWeakPassword):
		return "Password is too weak"
	}
	return err.Error()
}

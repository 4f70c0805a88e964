// Package flow implements the authentication flow controller: the state
// machine behind the combined sign-in / sign-up / forgot-password form.
package flow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aoinoikaz/TruthCapture/internal/gateway"
	"github.com/aoinoikaz/TruthCapture/internal/password"
	"github.com/aoinoikaz/TruthCapture/internal/session"
)

// State is the submission state of the auth form.
type State string

const (
	StateIdle                 State = "idle"
	StateSubmitting           State = "submitting"
	StateError                State = "error"
	StateAwaitingVerification State = "awaiting_verification"
	StateSuccess              State = "success"
)

// Mode selects which variant of the auth form is active.
type Mode string

const (
	ModeSignIn         Mode = "sign_in"
	ModeSignUp         Mode = "sign_up"
	ModeForgotPassword Mode = "forgot_password"
)

// ErrSubmissionInFlight is returned when a submit is attempted while a
// previous submission is still running.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// countdownStart is the number of ticks shown after a successful sign-up
// before the form returns to sign-in.
const countdownStart = 5

// Form holds the auth form fields.
type Form struct {
	Email           string
	Password        string
	ConfirmPassword string
	DisplayName     string
}

// Status is the consumer view of the controller.
type Status struct {
	Mode      Mode
	State     State
	Message   string
	Countdown int
}

// Config tunes the controller's timers. Zero values fall back to the
// defaults used in production.
type Config struct {
	// TickInterval is the countdown tick period after sign-up.
	TickInterval time.Duration
	// RedirectDelay is how long success messages linger before the form
	// returns to sign-in.
	RedirectDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.RedirectDelay <= 0 {
		c.RedirectDelay = 3 * time.Second
	}
	return c
}

// Controller drives the auth form. All gateway calls within one submission
// run sequentially; the first failure aborts the remaining steps and leaves
// the form editable for another attempt. Nothing retries automatically.
type Controller struct {
	gw       gateway.IdentityGateway
	navigate session.NavigateFunc
	cfg      Config
	logger   *slog.Logger

	mu        sync.Mutex
	form      Form
	mode      Mode
	state     State
	message   string
	countdown int

	// timerGen invalidates outstanding timers: every transition that owns a
	// timer bumps it, and a timer only acts if its generation still matches.
	timerGen    int
	timerCancel context.CancelFunc
}

// NewController creates an auth flow controller in sign-in mode.
func NewController(gw gateway.IdentityGateway, navigate session.NavigateFunc, cfg Config, logger *slog.Logger) *Controller {
	return &Controller{
		gw:       gw,
		navigate: navigate,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		mode:     ModeSignIn,
		state:    StateIdle,
	}
}

// Status returns the current controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{Mode: c.mode, State: c.state, Message: c.message, Countdown: c.countdown}
}

// Form returns a copy of the current form fields.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SetForm replaces the form fields.
func (c *Controller) SetForm(f Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
}

// ToggleMode switches the form variant, clearing any message and the
// password fields. The session store is never touched.
func (c *Controller) ToggleMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
	c.mode = mode
	c.state = StateIdle
	c.message = ""
	c.countdown = 0
	c.form.Password = ""
	c.form.ConfirmPassword = ""
}

// Close cancels any pending timers. The controller must not be used after
// Close.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelTimerLocked()
}

// SubmitSignIn authenticates with the current form credentials. A session
// for an unverified email is terminated immediately and reported as an
// error; the caller never observes a signed-in unverified state as success.
func (c *Controller) SubmitSignIn(ctx context.Context) error {
	form, err := c.beginSubmit()
	if err != nil {
		return err
	}

	identity, err := c.gw.SignIn(ctx, form.Email, form.Password)
	if err != nil {
		c.fail(messageFor(err))
		return nil
	}

	if !identity.EmailVerified {
		if err := c.gw.SignOut(ctx); err != nil {
			c.logger.WarnContext(ctx, "sign out after unverified sign-in failed",
				slog.String("error", err.Error()),
			)
		}
		c.fail("Please verify your email before logging in. Check your inbox.")
		return nil
	}

	c.mu.Lock()
	c.state = StateSuccess
	c.message = ""
	c.mu.Unlock()

	if c.navigate != nil {
		c.navigate(session.PathDashboard)
	}
	return nil
}

// SubmitSignUp registers a new account. Local preconditions are checked
// before any gateway call: the confirmation must match, then the password
// must satisfy the policy. On success the fresh unverified session is signed
// out and the form enters the awaiting-verification countdown.
func (c *Controller) SubmitSignUp(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	form := c.form

	if form.Password != form.ConfirmPassword {
		c.cancelTimerLocked()
		c.state = StateError
		c.message = "Passwords do not match"
		c.mu.Unlock()
		return nil
	}
	if !password.Evaluate(form.Password, form.ConfirmPassword).Valid() {
		c.cancelTimerLocked()
		c.state = StateError
		c.message = "Password does not meet requirements"
		c.mu.Unlock()
		return nil
	}

	c.cancelTimerLocked()
	c.state = StateSubmitting
	c.message = ""
	c.mu.Unlock()

	if _, err := c.gw.CreateAccount(ctx, form.Email, form.Password); err != nil {
		c.fail(messageFor(err))
		return nil
	}

	if form.DisplayName != "" {
		if err := c.gw.UpdateDisplayName(ctx, form.DisplayName); err != nil {
			c.fail(messageFor(err))
			return nil
		}
	}

	if err := c.gw.SendVerificationEmail(ctx); err != nil {
		c.fail(messageFor(err))
		return nil
	}

	// The account must not stay signed in before the email is verified.
	if err := c.gw.SignOut(ctx); err != nil {
		c.fail(messageFor(err))
		return nil
	}

	c.mu.Lock()
	c.state = StateAwaitingVerification
	c.message = "Account created! Please check your inbox and verify your email."
	c.countdown = countdownStart
	tctx := c.newTimerLocked()
	gen := c.timerGen
	c.mu.Unlock()

	go c.runCountdown(tctx, gen)
	return nil
}

// RequestPasswordReset asks the gateway to send a reset email for the form's
// email address, then returns the form to sign-in after the configured
// delay.
func (c *Controller) RequestPasswordReset(ctx context.Context) error {
	form, err := c.beginSubmit()
	if err != nil {
		return err
	}

	if err := c.gw.RequestPasswordReset(ctx, form.Email); err != nil {
		c.fail(messageFor(err))
		return nil
	}

	c.mu.Lock()
	c.state = StateIdle
	c.message = "Password reset email sent! Check your inbox."
	tctx := c.newTimerLocked()
	gen := c.timerGen
	c.mu.Unlock()

	go c.runRedirect(tctx, gen)
	return nil
}

// beginSubmit transitions into the submitting state, rejecting concurrent
// submissions, and returns the form as of submission time.
func (c *Controller) beginSubmit() (Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubmitting {
		return Form{}, ErrSubmissionInFlight
	}
	c.cancelTimerLocked()
	c.state = StateSubmitting
	c.message = ""
	return c.form, nil
}

func (c *Controller) fail(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateError
	c.message = message
}

// newTimerLocked bumps the timer generation and returns a context that is
// cancelled when a newer timer takes over.
func (c *Controller) newTimerLocked() context.Context {
	c.cancelTimerLocked()
	ctx, cancel := context.WithCancel(context.Background())
	c.timerCancel = cancel
	c.timerGen++
	return ctx
}

func (c *Controller) cancelTimerLocked() {
	if c.timerCancel != nil {
		c.timerCancel()
		c.timerCancel = nil
	}
	c.timerGen++
}

// runCountdown ticks the awaiting-verification countdown down to zero, then
// resets the form and returns to sign-in. A stale generation means another
// transition took over; the timer then exits without touching state.
func (c *Controller) runCountdown(ctx context.Context, gen int) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.timerGen != gen {
			c.mu.Unlock()
			return
		}
		c.countdown--
		if c.countdown > 0 {
			c.mu.Unlock()
			continue
		}
		c.form = Form{}
		c.mode = ModeSignIn
		c.state = StateIdle
		c.message = ""
		c.countdown = 0
		c.timerCancel = nil
		c.timerGen++
		c.mu.Unlock()
		return
	}
}

// runRedirect returns the form to sign-in after the redirect delay.
func (c *Controller) runRedirect(ctx context.Context, gen int) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(c.cfg.RedirectDelay):
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timerGen != gen {
		return
	}
	c.mode = ModeSignIn
	c.state = StateIdle
	c.message = ""
	c.timerCancel = nil
	c.timerGen++
}

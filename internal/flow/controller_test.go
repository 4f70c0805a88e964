package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
	"github.com/aoinoikaz/TruthCapture/internal/gateway"
	"github.com/aoinoikaz/TruthCapture/internal/gateway/gatewaytest"
	"github.com/aoinoikaz/TruthCapture/internal/session"
	"github.com/aoinoikaz/TruthCapture/pkg/logger"
)

func newTestController(gw gateway.IdentityGateway, navigate session.NavigateFunc) *Controller {
	cfg := Config{TickInterval: 5 * time.Millisecond, RedirectDelay: 5 * time.Millisecond}
	return NewController(gw, navigate, cfg, logger.New("flow-test", "debug"))
}

func TestSubmitSignIn_Success(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", true)

	var navigated []string
	c := newTestController(gw, func(path string) { navigated = append(navigated, path) })
	defer c.Close()

	c.SetForm(Form{Email: "user@example.com", Password: "Abcdef1!"})
	require.NoError(t, c.SubmitSignIn(context.Background()))

	st := c.Status()
	assert.Equal(t, StateSuccess, st.State)
	assert.Empty(t, st.Message)
	assert.Equal(t, []string{session.PathDashboard}, navigated)
}

func TestSubmitSignIn_WrongPassword(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", true)

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "user@example.com", Password: "nope"})
	require.NoError(t, c.SubmitSignIn(context.Background()))

	st := c.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "Incorrect password", st.Message)
}

func TestSubmitSignIn_UnknownEmail(t *testing.T) {
	gw := gatewaytest.New()

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "ghost@example.com", Password: "Abcdef1!"})
	require.NoError(t, c.SubmitSignIn(context.Background()))

	assert.Equal(t, "No account found with this email", c.Status().Message)
}

func TestSubmitSignIn_UnverifiedEndsSignedOut(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", false)

	var navigated []string
	c := newTestController(gw, func(path string) { navigated = append(navigated, path) })
	defer c.Close()

	c.SetForm(Form{Email: "user@example.com", Password: "Abcdef1!"})
	require.NoError(t, c.SubmitSignIn(context.Background()))

	st := c.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "Please verify your email before logging in. Check your inbox.", st.Message)
	assert.Empty(t, gw.CurrentEmail())
	assert.Empty(t, navigated)
	assert.Equal(t, []string{"SignIn", "SignOut"}, gw.Calls)
}

func TestSubmitSignUp_MismatchNeverReachesGateway(t *testing.T) {
	gw := gatewaytest.New()

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "new@example.com", Password: "Abcdef1!", ConfirmPassword: "Abcdef1?"})
	require.NoError(t, c.SubmitSignUp(context.Background()))

	st := c.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "Passwords do not match", st.Message)
	assert.Empty(t, gw.Calls)
}

func TestSubmitSignUp_PolicyFailureNeverReachesGateway(t *testing.T) {
	gw := gatewaytest.New()

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "new@example.com", Password: "abcdefgh", ConfirmPassword: "abcdefgh"})
	require.NoError(t, c.SubmitSignUp(context.Background()))

	st := c.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "Password does not meet requirements", st.Message)
	assert.Empty(t, gw.Calls)
}

func TestSubmitSignUp_SuccessSequence(t *testing.T) {
	gw := gatewaytest.New()

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{
		Email:           "new@example.com",
		Password:        "Abcdef1!",
		ConfirmPassword: "Abcdef1!",
		DisplayName:     "New User",
	})
	require.NoError(t, c.SubmitSignUp(context.Background()))

	st := c.Status()
	assert.Equal(t, StateAwaitingVerification, st.State)
	assert.Equal(t, 5, st.Countdown)
	assert.Equal(t,
		[]string{"CreateAccount", "UpdateDisplayName", "SendVerificationEmail", "SignOut"},
		gw.Calls,
	)
	assert.Empty(t, gw.CurrentEmail())

	// The countdown drains and the form returns to sign-in, reset.
	assert.Eventually(t, func() bool {
		st := c.Status()
		return st.Mode == ModeSignIn && st.State == StateIdle && st.Countdown == 0
	}, time.Second, time.Millisecond)
	assert.Equal(t, Form{}, c.Form())
}

func TestSubmitSignUp_NoDisplayNameSkipsUpdate(t *testing.T) {
	gw := gatewaytest.New()

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "new@example.com", Password: "Abcdef1!", ConfirmPassword: "Abcdef1!"})
	require.NoError(t, c.SubmitSignUp(context.Background()))

	assert.Equal(t, []string{"CreateAccount", "SendVerificationEmail", "SignOut"}, gw.Calls)
}

func TestSubmitSignUp_EmailInUse(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("taken@example.com", "Abcdef1!", true)

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "taken@example.com", Password: "Abcdef1!", ConfirmPassword: "Abcdef1!"})
	require.NoError(t, c.SubmitSignUp(context.Background()))

	st := c.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "This email is already registered", st.Message)
	assert.Equal(t, []string{"CreateAccount"}, gw.Calls)
}

func TestSubmitSignUp_FailureAbortsTail(t *testing.T) {
	gw := gatewaytest.New()
	gw.UpdateDisplayNameErr = gateway.ErrRateLimited

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{
		Email:           "new@example.com",
		Password:        "Abcdef1!",
		ConfirmPassword: "Abcdef1!",
		DisplayName:     "New User",
	})
	require.NoError(t, c.SubmitSignUp(context.Background()))

	st := c.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "Too many attempts. Try again later.", st.Message)
	assert.Equal(t, []string{"CreateAccount", "UpdateDisplayName"}, gw.Calls)
}

func TestRequestPasswordReset_Success(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", true)

	c := newTestController(gw, nil)
	defer c.Close()

	c.ToggleMode(ModeForgotPassword)
	c.SetForm(Form{Email: "user@example.com"})
	require.NoError(t, c.RequestPasswordReset(context.Background()))

	assert.Equal(t, "Password reset email sent! Check your inbox.", c.Status().Message)

	// After the redirect delay the form returns to sign-in.
	assert.Eventually(t, func() bool {
		st := c.Status()
		return st.Mode == ModeSignIn && st.Message == ""
	}, time.Second, time.Millisecond)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	gw := gatewaytest.New()

	c := newTestController(gw, nil)
	defer c.Close()

	c.ToggleMode(ModeForgotPassword)
	c.SetForm(Form{Email: "ghost@example.com"})
	require.NoError(t, c.RequestPasswordReset(context.Background()))

	st := c.Status()
	assert.Equal(t, StateError, st.State)
	assert.Equal(t, "No account found with this email", st.Message)
	assert.Equal(t, ModeForgotPassword, st.Mode)
}

func TestToggleMode_ClearsMessageAndPasswords(t *testing.T) {
	gw := gatewaytest.New()

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "user@example.com", Password: "nope", ConfirmPassword: "nope"})
	require.NoError(t, c.SubmitSignIn(context.Background()))
	require.Equal(t, StateError, c.Status().State)

	c.ToggleMode(ModeSignUp)

	st := c.Status()
	assert.Equal(t, ModeSignUp, st.Mode)
	assert.Equal(t, StateIdle, st.State)
	assert.Empty(t, st.Message)

	form := c.Form()
	assert.Equal(t, "user@example.com", form.Email)
	assert.Empty(t, form.Password)
	assert.Empty(t, form.ConfirmPassword)
}

func TestToggleMode_CancelsCountdown(t *testing.T) {
	gw := gatewaytest.New()

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "new@example.com", Password: "Abcdef1!", ConfirmPassword: "Abcdef1!"})
	require.NoError(t, c.SubmitSignUp(context.Background()))
	require.Equal(t, StateAwaitingVerification, c.Status().State)

	c.ToggleMode(ModeSignIn)
	c.SetForm(Form{Email: "after@example.com"})

	// The cancelled countdown must not fire against the new form state.
	time.Sleep(20 * c.cfg.TickInterval)
	assert.Equal(t, "after@example.com", c.Form().Email)
	assert.Equal(t, StateIdle, c.Status().State)
}

// blockingGateway wraps the fake so SignIn blocks until released, to
// exercise the concurrent submission guard.
type blockingGateway struct {
	*gatewaytest.Fake
	release chan struct{}
}

func (b *blockingGateway) SignIn(ctx context.Context, email, pw string) (*domain.Identity, error) {
	<-b.release
	return b.Fake.SignIn(ctx, email, pw)
}

func TestSubmit_ConcurrentSubmissionRejected(t *testing.T) {
	fake := gatewaytest.New()
	fake.SeedAccount("user@example.com", "Abcdef1!", true)
	gw := &blockingGateway{Fake: fake, release: make(chan struct{})}

	c := newTestController(gw, nil)
	defer c.Close()

	c.SetForm(Form{Email: "user@example.com", Password: "Abcdef1!"})

	done := make(chan error, 1)
	go func() { done <- c.SubmitSignIn(context.Background()) }()

	require.Eventually(t, func() bool {
		return c.Status().State == StateSubmitting
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.SubmitSignIn(context.Background()), ErrSubmissionInFlight)
	assert.ErrorIs(t, c.SubmitSignUp(context.Background()), ErrSubmissionInFlight)

	close(gw.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateSuccess, c.Status().State)
}

func TestMessageFor_Fallback(t *testing.T) {
	assert.Equal(t, fallbackMessage, messageFor(nil))
	assert.Equal(t, "upstream exploded", messageFor(errors.New("upstream exploded")))
}

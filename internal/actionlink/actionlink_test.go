package actionlink

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoinoikaz/TruthCapture/internal/domain"
	"github.com/aoinoikaz/TruthCapture/internal/gateway/gatewaytest"
	"github.com/aoinoikaz/TruthCapture/internal/session"
	"github.com/aoinoikaz/TruthCapture/pkg/logger"
)

func newTestController(gw *gatewaytest.Fake, navigate session.NavigateFunc) *Controller {
	cfg := Config{RedirectDelay: 5 * time.Millisecond}
	return NewController(gw, navigate, cfg, logger.New("actionlink-test", "debug"))
}

func linkQuery(mode, code string) url.Values {
	q := url.Values{}
	if mode != "" {
		q.Set(ParamMode, mode)
	}
	if code != "" {
		q.Set(ParamCode, code)
	}
	return q
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams(linkQuery("verifyEmail", "code-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionVerifyEmail, p.Mode)
	assert.Equal(t, "code-1", p.Code)

	_, err = ParseParams(linkQuery("", "code-1"))
	assert.ErrorIs(t, err, ErrInvalidLink)

	_, err = ParseParams(linkQuery("verifyEmail", ""))
	assert.ErrorIs(t, err, ErrInvalidLink)

	_, err = ParseParams(linkQuery("recoverEmail", "code-1"))
	assert.ErrorIs(t, err, ErrInvalidLink)
}

func TestLoad_InvalidLink(t *testing.T) {
	c := newTestController(gatewaytest.New(), nil)
	defer c.Close()

	err := c.Load(context.Background(), linkQuery("bogus", "code-1"))
	assert.ErrorIs(t, err, ErrInvalidLink)
	assert.Equal(t, StatusError, c.View().Status)
}

func TestLoad_VerifyEmailSuccess(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", false)
	code := gw.IssueCode(domain.ActionVerifyEmail, "user@example.com")

	var navigated []string
	done := make(chan struct{})
	c := newTestController(gw, func(path string) {
		navigated = append(navigated, path)
		close(done)
	})
	defer c.Close()

	require.NoError(t, c.Load(context.Background(), linkQuery("verifyEmail", code)))

	v := c.View()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, "Email verified! You can now log in.", v.Message)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("redirect did not fire")
	}
	assert.Equal(t, []string{session.PathAuth}, navigated)

	// The account is now verified.
	require.NoError(t, gw.SignOut(context.Background()))
	id, err := gw.SignIn(context.Background(), "user@example.com", "Abcdef1!")
	require.NoError(t, err)
	assert.True(t, id.EmailVerified)
}

func TestLoad_VerifyEmailConfirmsOnlyOnce(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", false)
	code := gw.IssueCode(domain.ActionVerifyEmail, "user@example.com")

	c := newTestController(gw, nil)
	defer c.Close()

	require.NoError(t, c.Load(context.Background(), linkQuery("verifyEmail", code)))
	require.NoError(t, c.Load(context.Background(), linkQuery("verifyEmail", code)))

	assert.Equal(t, []string{"ConfirmVerification"}, gw.Calls)
	assert.Equal(t, StatusSuccess, c.View().Status)
}

func TestLoad_VerifyEmailUsedCode(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", false)
	code := gw.IssueCode(domain.ActionVerifyEmail, "user@example.com")
	require.NoError(t, gw.ConfirmVerification(context.Background(), code))

	var navigated []string
	c := newTestController(gw, func(path string) { navigated = append(navigated, path) })
	defer c.Close()

	require.NoError(t, c.Load(context.Background(), linkQuery("verifyEmail", code)))

	v := c.View()
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, "This verification link has already been used or is invalid", v.Message)

	// Failures never auto-redirect.
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, navigated)
}

func TestLoad_ResetPasswordResolvesEmail(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", true)
	code := gw.IssueCode(domain.ActionResetPassword, "user@example.com")

	c := newTestController(gw, nil)
	defer c.Close()

	require.NoError(t, c.Load(context.Background(), linkQuery("resetPassword", code)))

	v := c.View()
	assert.Equal(t, StatusReady, v.Status)
	assert.Equal(t, "user@example.com", v.Email)
}

func TestLoad_ResetPasswordExpiredCode(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", true)
	code := gw.IssueCode(domain.ActionResetPassword, "user@example.com")
	gw.ExpireCode(code)

	c := newTestController(gw, nil)
	defer c.Close()

	require.NoError(t, c.Load(context.Background(), linkQuery("resetPassword", code)))

	v := c.View()
	assert.Equal(t, StatusError, v.Status)
	assert.Equal(t, "This reset link has expired or is invalid", v.Message)

	// The dead code is never submitted again.
	require.NoError(t, c.SubmitNewPassword(context.Background(), "Abcdef1!", "Abcdef1!"))
	assert.NotContains(t, gw.Calls, "ConfirmPasswordReset")
}

func TestSubmitNewPassword_PreconditionsBeforeGateway(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "Abcdef1!", true)
	code := gw.IssueCode(domain.ActionResetPassword, "user@example.com")

	c := newTestController(gw, nil)
	defer c.Close()
	require.NoError(t, c.Load(context.Background(), linkQuery("resetPassword", code)))
	callsAfterLoad := len(gw.Calls)

	require.NoError(t, c.SubmitNewPassword(context.Background(), "Abcdef1!", "Other1!x"))
	assert.Equal(t, "Passwords do not match", c.View().Message)

	require.NoError(t, c.SubmitNewPassword(context.Background(), "abcdefgh", "abcdefgh"))
	assert.Equal(t, "Password does not meet requirements", c.View().Message)

	assert.Len(t, gw.Calls, callsAfterLoad)
}

func TestSubmitNewPassword_Success(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "OldPass1!", true)
	code := gw.IssueCode(domain.ActionResetPassword, "user@example.com")

	var navigated []string
	done := make(chan struct{})
	c := newTestController(gw, func(path string) {
		navigated = append(navigated, path)
		close(done)
	})
	defer c.Close()

	require.NoError(t, c.Load(context.Background(), linkQuery("resetPassword", code)))
	require.NoError(t, c.SubmitNewPassword(context.Background(), "NewPass1!", "NewPass1!"))

	v := c.View()
	assert.Equal(t, StatusSuccess, v.Status)
	assert.Equal(t, "Password reset successfully! You can now log in.", v.Message)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("redirect did not fire")
	}
	assert.Equal(t, []string{session.PathAuth}, navigated)

	// The new password works, the old one does not.
	_, err := gw.SignIn(context.Background(), "user@example.com", "OldPass1!")
	assert.Error(t, err)
	_, err = gw.SignIn(context.Background(), "user@example.com", "NewPass1!")
	assert.NoError(t, err)
}

func TestSubmitNewPassword_CodeConsumedOnce(t *testing.T) {
	gw := gatewaytest.New()
	gw.SeedAccount("user@example.com", "OldPass1!", true)
	code := gw.IssueCode(domain.ActionResetPassword, "user@example.com")

	c := newTestController(gw, nil)
	defer c.Close()
	require.NoError(t, c.Load(context.Background(), linkQuery("resetPassword", code)))
	require.NoError(t, c.SubmitNewPassword(context.Background(), "NewPass1!", "NewPass1!"))

	// A second controller loading the same link sees a dead code.
	c2 := newTestController(gw, nil)
	defer c2.Close()
	require.NoError(t, c2.Load(context.Background(), linkQuery("resetPassword", code)))
	assert.Equal(t, StatusError, c2.View().Status)
	assert.Equal(t, "This reset link has expired or is invalid", c2.View().Message)
}

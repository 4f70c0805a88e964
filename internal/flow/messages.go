package flow

import (
	"errors"

	"github.com/aoinoikaz/TruthCapture/internal/gateway"
)

// fallbackMessage is shown when a failure carries no usable text.
const fallbackMessage = "Authentication failed"

// messageFor maps a gateway failure to the fixed user-facing message for
// that failure kind. Unknown failures surface their own text so operators
// see the real cause.
func messageFor(err error) string {
	switch {
	case errors.Is(err, gateway.ErrEmailAlreadyInUse):
		return "This email is already registered"
	case errors.Is(err, gateway.ErrInvalidEmail):
		return "Invalid email address"
	case errors.Is(err, gateway.ErrWeakPassword):
		return "Password is too weak"
	case errors.Is(err, gateway.ErrUserNotFound):
		return "No account found with this email"
	case errors.Is(err, gateway.ErrWrongPassword):
		return "Incorrect password"
	case errors.Is(err, gateway.ErrInvalidActionCode):
		return "This verification link has already been used or is invalid"
	case errors.Is(err, gateway.ErrExpiredResetCode):
		return "This reset link has expired or is invalid"
	case errors.Is(err, gateway.ErrRateLimited):
		return "Too many attempts. Try again later."
	}
	if err == nil || err.Error() == "" {
		return fallbackMessage
	}
	return err.Error()
}

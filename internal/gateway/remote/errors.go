package remote

import (
	"errors"

	"github.com/aoinoikaz/TruthCapture/internal/gateway"
	apperrors "github.com/aoinoikaz/TruthCapture/pkg/errors"
	"github.com/aoinoikaz/TruthCapture/pkg/httpclient"
)

// mapResponseError translates identity service error codes into gateway
// error values. Unknown codes pass through untouched so callers can still
// log them.
func mapResponseError(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	switch appErr.Code {
	case "INVALID_EMAIL":
		return gateway.ErrInvalidEmail
	case "WEAK_PASSWORD", "VALIDATION_ERROR":
		return gateway.ErrWeakPassword
	case "EMAIL_EXISTS":
		return gateway.ErrEmailAlreadyInUse
	case "USER_NOT_FOUND":
		return gateway.ErrUserNotFound
	case "WRONG_PASSWORD":
		return gateway.ErrWrongPassword
	case "INVALID_ACTION_CODE":
		return gateway.ErrInvalidActionCode
	case "EXPIRED_ACTION_CODE":
		return gateway.ErrExpiredResetCode
	case "RATE_LIMITED":
		return gateway.ErrRateLimited
	case "UNAUTHORIZED", "SESSION_REVOKED":
		return gateway.ErrNotSignedIn
	default:
		return err
	}
}

// mapTransportError folds circuit breaker rejections into the rate limit
// error so the client surfaces its too-many-attempts message instead of a
// raw transport failure.
func mapTransportError(err error) error {
	if httpclient.IsCircuitOpen(err) {
		return gateway.ErrRateLimited
	}
	return err
}

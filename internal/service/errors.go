package service

import (
	"net/http"

	apperrors "github.com/aoinoikaz/TruthCapture/pkg/errors"
)

// Auth error vocabulary. The Code field is part of the HTTP contract:
// clients map these codes back to their own error values, so they must
// stay stable across releases.
var (
	ErrInvalidEmail = &apperrors.AppError{
		Code:    "INVALID_EMAIL",
		Message: "email address is malformed",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}

	ErrWeakPassword = &apperrors.AppError{
		Code:    "WEAK_PASSWORD",
		Message: "password does not meet the policy",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}

	ErrEmailExists = &apperrors.AppError{
		Code:    "EMAIL_EXISTS",
		Message: "an account with this email already exists",
		Status:  http.StatusConflict,
		Err:     apperrors.ErrAlreadyExists,
	}

	ErrUserNotFound = &apperrors.AppError{
		Code:    "USER_NOT_FOUND",
		Message: "no account exists for this email",
		Status:  http.StatusNotFound,
		Err:     apperrors.ErrNotFound,
	}

	ErrWrongPassword = &apperrors.AppError{
		Code:    "WRONG_PASSWORD",
		Message: "password is incorrect",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrUnauthorized,
	}

	ErrInvalidActionCode = &apperrors.AppError{
		Code:    "INVALID_ACTION_CODE",
		Message: "action code has already been used or is invalid",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}

	ErrExpiredActionCode = &apperrors.AppError{
		Code:    "EXPIRED_ACTION_CODE",
		Message: "action code has expired",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}

	ErrGateDenied = &apperrors.AppError{
		Code:    "GATE_DENIED",
		Message: "access password is incorrect",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrUnauthorized,
	}

	ErrSessionRevoked = &apperrors.AppError{
		Code:    "SESSION_REVOKED",
		Message: "session is no longer active",
		Status:  http.StatusUnauthorized,
		Err:     apperrors.ErrUnauthorized,
	}
)

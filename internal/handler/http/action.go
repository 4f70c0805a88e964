package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aoinoikaz/TruthCapture/internal/service"
	"github.com/aoinoikaz/TruthCapture/pkg/httputil"
	"github.com/aoinoikaz/TruthCapture/pkg/validator"
)

// ActionHandler handles HTTP requests for out-of-band action codes, the
// opaque codes carried by verification and password reset email links.
type ActionHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewActionHandler creates a new action code HTTP handler.
func NewActionHandler(svc *service.AuthService, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// ActionCodeRequest is the JSON request body carrying an action code.
type ActionCodeRequest struct {
	OOBCode string `json:"oob_code" validate:"required"`
}

// ResetPasswordRequest is the JSON request body for completing a password
// reset.
type ResetPasswordRequest struct {
	OOBCode     string `json:"oob_code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// --- Response types ---

// ResetCodeResponse reports the email a valid reset code was issued for.
type ResetCodeResponse struct {
	Email string `json:"email"`
}

// --- Handlers ---

// VerifyEmail handles POST /api/v1/auth/action/verify-email. The code is
// consumed on success; replaying it fails.
func (h *ActionHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ActionCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.ConfirmVerification(r.Context(), req.OOBCode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user.Identity()})
}

// VerifyResetCode handles POST /api/v1/auth/action/verify-reset. The code
// stays valid; only the confirm endpoint consumes it.
func (h *ActionHandler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ActionCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	email, err := h.service.VerifyResetCode(r.Context(), req.OOBCode)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ResetCodeResponse{Email: email}})
}

// ResetPassword handles POST /api/v1/auth/action/reset-password
func (h *ActionHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), req.OOBCode, req.NewPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aoinoikaz/TruthCapture/internal/service"
	"github.com/aoinoikaz/TruthCapture/pkg/httputil"
	"github.com/aoinoikaz/TruthCapture/pkg/validator"
)

// GateTokenHeader carries the gate session token on validation requests.
const GateTokenHeader = "X-Gate-Token"

// GateHandler handles HTTP requests for the deployment access gate.
type GateHandler struct {
	service *service.GateService
	logger  *slog.Logger
}

// NewGateHandler creates a new gate HTTP handler.
func NewGateHandler(svc *service.GateService, logger *slog.Logger) *GateHandler {
	return &GateHandler{service: svc, logger: logger}
}

// UnlockRequest is the JSON request body for unlocking the gate.
type UnlockRequest struct {
	Password string `json:"password" validate:"required"`
}

// UnlockResponse carries the issued gate session token.
type UnlockResponse struct {
	Token string `json:"token"`
}

// GateStatusResponse reports whether a gate session is still active.
type GateStatusResponse struct {
	Active bool `json:"active"`
}

// Unlock handles POST /api/v1/gate/unlock
func (h *GateHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	token, err := h.service.Unlock(r.Context(), req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: UnlockResponse{Token: token}})
}

// Session handles GET /api/v1/gate/session
func (h *GateHandler) Session(w http.ResponseWriter, r *http.Request) {
	active, err := h.service.Validate(r.Context(), r.Header.Get(GateTokenHeader))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: GateStatusResponse{Active: active}})
}

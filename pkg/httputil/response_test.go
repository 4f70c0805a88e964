package httputil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aoinoikaz/TruthCapture/pkg/errors"
	"github.com/aoinoikaz/TruthCapture/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"id": "1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var out Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "1", out.Data.(map[string]any)["id"])
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, apperrors.NotFound("user", "u-1"), testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var out Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.NotNil(t, out.Error)
	assert.Equal(t, "NOT_FOUND", out.Error.Code)
}

func TestWriteError_WrappedAppErrorKeepsCode(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	wrapped := fmt.Errorf("handler: %w", apperrors.Unauthorized("session expired"))
	WriteError(rec, req, wrapped, testLogger())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var out Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.NotNil(t, out.Error)
	assert.Equal(t, "UNAUTHORIZED", out.Error.Code)
	assert.Equal(t, "session expired", out.Error.Message)
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, fmt.Errorf("boom"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var out Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.NotNil(t, out.Error)
	assert.Equal(t, "INTERNAL_ERROR", out.Error.Code)
	// Internal details must not leak to the client.
	assert.NotContains(t, out.Error.Message, "boom")
}

func TestWriteValidationError_FieldMap(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
	}
	err := validator.Validate(form{})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var out Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.NotNil(t, out.Error)
	assert.Equal(t, "VALIDATION_ERROR", out.Error.Code)
	assert.Contains(t, out.Error.Fields, "Email")
}

func TestWriteValidationError_PlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, fmt.Errorf("unexpected EOF"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var out Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.NotNil(t, out.Error)
	assert.Equal(t, "INVALID_INPUT", out.Error.Code)
}

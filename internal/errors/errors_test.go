package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("open data.csv: no such file or directory")
	err := NewStorageError("source unavailable", cause)

	assert.Equal(t, ErrTypeStorage, err.Type)
	assert.Contains(t, err.Error(), "[STORAGE]")
	assert.Contains(t, err.Error(), "source unavailable")
	assert.True(t, errors.Is(err, cause))
}

func TestAppErrorWithContext(t *testing.T) {
	err := NewSchemaError("timestamp column missing", nil).
		WithContext("source", "data.csv")

	assert.Equal(t, "data.csv", err.Context["source"])
	assert.NotContains(t, err.Error(), "%!")
}

func TestAPIErrorRenderStatus(t *testing.T) {
	apiErr := ErrValidation("min_flux", "must be non-negative")

	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

	detail, ok := apiErr.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "min_flux", detail.Field)
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusServiceUnavailable, TypeDatasetUnavailable,
		"Dataset Unavailable", "source unreadable", "/api/data/summary").
		WithExtension("source", "flares.csv")

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, TypeDatasetUnavailable, decoded["type"])
	assert.Equal(t, "flares.csv", decoded["source"])
	assert.Equal(t, float64(http.StatusServiceUnavailable), decoded["status"])
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewErrorHandler(logger, false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "storage error maps to dataset unavailable",
			err:        NewStorageError("source unavailable", errors.New("no such file")),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetUnavailable,
		},
		{
			name:       "schema error maps to dataset schema",
			err:        NewSchemaError("timestamp column missing", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDatasetSchema,
		},
		{
			name:       "validation error maps to bad request",
			err:        NewAppValidationError("from must precede to"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeFilterInvalid,
		},
		{
			name:       "unknown error maps to internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/data/summary", nil)
			problem := h.ErrorToProblem(tt.err, r)

			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/data/summary", problem.Instance)
		})
	}
}

func TestErrorHandlerMapsRateLimitError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewErrorHandler(logger, false)

	r := httptest.NewRequest(http.MethodGet, "/api/data/records", nil)
	problem := h.ErrorToProblem(ErrRateLimitExceeded, r)

	assert.Equal(t, http.StatusTooManyRequests, problem.Status)
	assert.Equal(t, TypeRateLimit, problem.Type)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", problem.Extensions["error_code"])
}

func TestErrorHandlerHandleErrorWritesProblemJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/data/daily", nil)

	h.HandleError(w, r, NewStorageError("source unavailable", errors.New("permission denied")))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, "Dataset Unavailable", decoded["title"])
	assert.Equal(t, "permission denied", decoded["cause"])
}

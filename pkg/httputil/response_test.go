package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docvault/docvault/pkg/apperr"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"message": "success"}

	err := WriteJSON(w, http.StatusOK, data)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "success")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", apperr.NotFound("file not found"), http.StatusNotFound},
		{"conflict", apperr.Conflict("name already exists"), http.StatusConflict},
		{"validation", apperr.Validation("name is required"), http.StatusBadRequest},
		{"forbidden", apperr.Forbidden("permission denied"), http.StatusForbidden},
		{"immutable", apperr.Immutable("system role"), http.StatusUnprocessableEntity},
		{"storage", apperr.Storage(errors.New("timeout"), "object store unavailable"), http.StatusBadGateway},
		{"internal", apperr.Internal(errors.New("boom"), "unexpected"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusFor(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, apperr.NotFound("file not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "file not found")
}

func TestWriteErrorMasksInternals(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, apperr.Internal(errors.New("pq: connection refused"), "query failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestWriteErrorMasksStorageCause(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, apperr.Storage(errors.New("s3: access denied for bucket"), "failed to store file content"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "failed to store file content")
	assert.NotContains(t, w.Body.String(), "access denied")
}

func TestWriteSuccessHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	assert.NoError(t, WriteSuccess(w, map[string]int{"count": 3}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	assert.NoError(t, WriteCreated(w, map[string]string{"id": "abc"}))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	WriteNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestWriteErrorMessageHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter, string)
		status int
	}{
		{"bad request", WriteBadRequest, http.StatusBadRequest},
		{"unauthorized", WriteUnauthorized, http.StatusUnauthorized},
		{"forbidden", WriteForbidden, http.StatusForbidden},
		{"too many requests", WriteTooManyRequests, http.StatusTooManyRequests},
		{"service unavailable", WriteServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w, "nope")
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), "nope")
		})
	}
}

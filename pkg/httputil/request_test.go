package httputil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/docvault/docvault/pkg/observability"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{
			name:        "valid JSON",
			body:        `{"name": "test"}`,
			expectError: false,
		},
		{
			name:        "invalid JSON",
			body:        `{invalid}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/test", bytes.NewBufferString(tt.body))
			var dest map[string]string

			err := ParseJSON(req, &dest)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "test", dest["name"])
			}
		})
	}
}

func TestParseJSONOrError(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/test", bytes.NewBufferString(`{broken`))
	var dest map[string]string

	assert.False(t, ParseJSONOrError(w, req, &dest))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPathVar(t *testing.T) {
	req := httptest.NewRequest("GET", "/files/abc-123", nil)
	req = mux.SetURLVars(req, map[string]string{"fileID": "abc-123"})

	val, err := PathVar(req, "fileID")
	assert.NoError(t, err)
	assert.Equal(t, "abc-123", val)

	_, err = PathVar(req, "missing")
	assert.Error(t, err)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/test?limit=25", nil)

	val, err := ParseQueryInt(req, "limit", 50)
	assert.NoError(t, err)
	assert.Equal(t, 25, val)

	val, err = ParseQueryInt(req, "offset", 10)
	assert.NoError(t, err)
	assert.Equal(t, 10, val)

	req = httptest.NewRequest("GET", "/test?limit=abc", nil)
	_, err = ParseQueryInt(req, "limit", 50)
	assert.Error(t, err)
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest("GET", "/test?due_only=true", nil)

	val, err := ParseQueryBool(req, "due_only", false)
	assert.NoError(t, err)
	assert.True(t, val)

	val, err = ParseQueryBool(req, "missing", false)
	assert.NoError(t, err)
	assert.False(t, val)
}

func TestOptionalQueryString(t *testing.T) {
	req := httptest.NewRequest("GET", "/test?section_id=s1&empty=", nil)

	ptr := OptionalQueryString(req, "section_id")
	assert.NotNil(t, ptr)
	assert.Equal(t, "s1", *ptr)

	// Present but empty still counts as provided.
	ptr = OptionalQueryString(req, "empty")
	assert.NotNil(t, ptr)
	assert.Equal(t, "", *ptr)

	assert.Nil(t, OptionalQueryString(req, "absent"))
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		limit  int
		offset int
	}{
		{"defaults", "/test", DefaultPageSize, 0},
		{"explicit", "/test?limit=20&offset=40", 20, 40},
		{"capped", "/test?limit=9999", MaxPageSize, 0},
		{"invalid falls back", "/test?limit=abc&offset=-5", DefaultPageSize, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			limit, offset := Pagination(req)
			assert.Equal(t, tt.limit, limit)
			assert.Equal(t, tt.offset, offset)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var captured string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.Header().Get("X-Request-ID")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
	assert.NotEmpty(t, captured)

	// Inbound id is preserved.
	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	handler.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", captured)
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(tag("outer"), tag("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

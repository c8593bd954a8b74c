package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ParseJSON decodes JSON from the request body into the destination
func ParseJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ParseJSONOrError decodes JSON and writes error response on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteBadRequest(w, err.Error())
		return false
	}
	return true
}

// PathVar extracts a string path parameter
func PathVar(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// PathVarOrError extracts a string path parameter and writes error on failure
func PathVarOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := PathVar(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}

// ParseQueryInt extracts and parses an integer query parameter
func ParseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for query param %s: %s", key, str)
	}
	return val, nil
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// ParseQueryBool extracts and parses a boolean query parameter
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for query param %s: %s", key, str)
	}
	return val, nil
}

// OptionalQueryString returns a pointer to the query parameter value, or
// nil when the parameter is absent
func OptionalQueryString(r *http.Request, key string) *string {
	if !r.URL.Query().Has(key) {
		return nil
	}
	val := r.URL.Query().Get(key)
	return &val
}

const (
	// DefaultPageSize applies when no limit query parameter is given
	DefaultPageSize = 50
	// MaxPageSize caps the limit query parameter
	MaxPageSize = 500
)

// Pagination reads limit/offset query parameters with defaults and caps.
// Invalid or out-of-range values fall back rather than erroring.
func Pagination(r *http.Request) (limit, offset int) {
	limit, err := ParseQueryInt(r, "limit", DefaultPageSize)
	if err != nil || limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset, err = ParseQueryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

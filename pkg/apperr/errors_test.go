package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("file not found"), KindNotFound},
		{"conflict", Conflict("slug taken"), KindConflict},
		{"validation", Validation("bad field type"), KindValidation},
		{"forbidden", Forbidden("denied"), KindForbidden},
		{"immutable", Immutable("system role"), KindImmutable},
		{"storage", Storage(errors.New("timeout"), "put failed"), KindStorage},
		{"plain error defaults to internal", errors.New("boom"), KindInternal},
		{"wrapped keeps kind", fmt.Errorf("create file: %w", Conflict("dup")), KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("folder %s not found", "abc")
	if err.Error() != "folder abc not found" {
		t.Errorf("unexpected message: %q", err.Error())
	}

	cause := errors.New("connection reset")
	werr := Storage(cause, "download failed")
	if !errors.Is(werr, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestIsHelpers(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Forbidden("no"))
	if !IsForbidden(wrapped) {
		t.Error("IsForbidden should see through wrapping")
	}
	if IsNotFound(wrapped) {
		t.Error("IsNotFound should not match a forbidden error")
	}
}

// Package apperr defines the error taxonomy shared across docvault services.
//
// Stores and services classify failures with one of the kinds below; the HTTP
// layer maps kinds to status codes without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller.
type Kind int

const (
	// KindInternal is the default for unexpected failures.
	KindInternal Kind = iota
	// KindNotFound covers missing entities, including tenant-mismatched lookups.
	KindNotFound
	// KindConflict covers uniqueness and duplicate-assignment violations.
	KindConflict
	// KindValidation covers malformed input.
	KindValidation
	// KindForbidden covers failed permission checks and ownership mismatches.
	KindForbidden
	// KindImmutable covers mutation attempts on system-managed resources.
	KindImmutable
	// KindStorage covers object-store operation failures.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindImmutable:
		return "immutable_resource"
	case KindStorage:
		return "storage_failure"
	default:
		return "internal"
	}
}

// Error carries a kind, a human-readable message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by kind so errors.Is(err, apperr.NotFound(""))
// style comparisons work without sentinel variables.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a KindConflict error.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a KindValidation error.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Forbidden returns a KindForbidden error.
func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Immutable returns a KindImmutable error.
func Immutable(format string, args ...interface{}) *Error {
	return &Error{Kind: KindImmutable, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps an object-store failure.
func Storage(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindStorage, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is classified KindNotFound.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is classified KindConflict.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsValidation reports whether err is classified KindValidation.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsForbidden reports whether err is classified KindForbidden.
func IsForbidden(err error) bool { return KindOf(err) == KindForbidden }

// IsImmutable reports whether err is classified KindImmutable.
func IsImmutable(err error) bool { return KindOf(err) == KindImmutable }

// IsStorage reports whether err is classified KindStorage.
func IsStorage(err error) bool { return KindOf(err) == KindStorage }

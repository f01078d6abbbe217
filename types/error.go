package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the router.
type ErrorCode string

const (
	// ErrClassification indicates the upstream classifier produced
	// unusable output. The routing request fails fast; nothing persisted.
	ErrClassification ErrorCode = "CLASSIFICATION_ERROR"

	// ErrNotFound indicates a referenced decision id, agent, or task type
	// does not exist. Surfaced to the caller, never retried.
	ErrNotFound ErrorCode = "NOT_FOUND"

	// ErrStore indicates a transient datastore failure. Retryable; never
	// leaves a partially-written routing decision behind.
	ErrStore ErrorCode = "STORE_ERROR"

	// ErrConfiguration indicates missing or inconsistent settings.
	ErrConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// ErrInvalidRequest indicates a malformed caller request, including
	// feedback resubmission for an already-resolved decision.
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrInternal is the catch-all for unexpected failures.
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Retryable: code == ErrStore}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WithCause attaches a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable overrides the retryable flag.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// AsError extracts a *Error from err's chain, or nil if none is present.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	if e := AsError(err); e != nil {
		return e.Code == code
	}
	return false
}

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	if e := AsError(err); e != nil {
		return e.Retryable
	}
	return false
}

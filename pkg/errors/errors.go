// Package errors provides structured error types for arteria.
//
// The growth core returns plain sentinel errors wrapped with %w. At the CLI
// and HTTP boundaries those are turned into an [*Error] carrying a
// machine-readable [Code], so that:
//   - exit messages and API responses stay consistent
//   - clients can switch on the code instead of parsing text
//   - the original cause is still reachable through errors.Is/As
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: configuration or input validation failures
//   - NOT_FOUND: unknown run, artifact or file
//   - SAMPLING_EXHAUSTED, JUNCTION_UNSOLVABLE, DEGENERATE_GEOMETRY: growth failures
//   - INTERNAL_*: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "terminal count must be positive")
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle validation error
//	}
//
//	// Map a growth failure to its code
//	err = errors.Classify(b.Grow(ctx, points))
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/arteria/pkg/core/grow"
	"github.com/matzehuels/arteria/pkg/core/junction"
	"github.com/matzehuels/arteria/pkg/core/sampler"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidLabel  Code = "INVALID_LABEL"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Growth errors
	ErrCodeSamplingExhausted  Code = "SAMPLING_EXHAUSTED"
	ErrCodeJunctionUnsolvable Code = "JUNCTION_UNSOLVABLE"
	ErrCodeDegenerateGeometry Code = "DEGENERATE_GEOMETRY"

	// Cancellation
	ErrCodeCanceled Code = "CANCELED"
	ErrCodeTimeout  Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeStorage     Code = "STORAGE_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Classify maps err to an *Error by looking for the growth sentinels in its
// chain. Errors that already carry a code are returned unchanged, nil stays
// nil, and anything unrecognized becomes INTERNAL_ERROR.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var code Code
	var msg string
	switch {
	case errors.Is(err, sampler.ErrSamplingExhausted):
		code, msg = ErrCodeSamplingExhausted, "could not place every terminal point"
	case errors.Is(err, junction.ErrJunctionUnsolvable):
		code, msg = ErrCodeJunctionUnsolvable, "no consistent junction pressure"
	case errors.Is(err, grow.ErrDegenerateGeometry):
		code, msg = ErrCodeDegenerateGeometry, "no valid bifurcation site"
	case errors.Is(err, grow.ErrInvalidParams), errors.Is(err, sampler.ErrInvalidInput):
		code, msg = ErrCodeInvalidConfig, "invalid configuration"
	case errors.Is(err, context.Canceled):
		code, msg = ErrCodeCanceled, "operation canceled"
	case errors.Is(err, context.DeadlineExceeded):
		code, msg = ErrCodeTimeout, "operation timed out"
	default:
		code, msg = ErrCodeInternal, "internal error"
	}
	return Wrap(code, err, "%s", msg)
}

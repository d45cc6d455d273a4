// Package errors provides the structured error type shared by viewui packages.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes used to classify failures by the unit they affect.
const (
	ErrConfig    = "CONFIG"
	ErrDashboard = "DASHBOARD"
	ErrQuery     = "QUERY"
	ErrPanel     = "PANEL"
	ErrBackend   = "BACKEND"
)

// Error is a structured error with a code, message, suggestion and optional cause.
// It renders as:
//
//	✗ <What failed>
//
//	  <Why it failed>
//
//	  <How to fix it>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a structured error.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Newf creates a structured error without a suggestion from a format string.
func Newf(code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps err with a message under the DASHBOARD code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrDashboard,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps err with a specific code, message and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Short returns the message and cause on one line, for places that cannot
// render multi-line errors such as a panel footer.
func (e *Error) Short() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Code == code
	}
	return false
}

// Message returns a one-line description of err. Structured errors use Short,
// anything else uses Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Short()
	}
	return err.Error()
}

// Package domainerrors defines the coded error values services return and the
// transport layer translates into HTTP responses. Codes classify the failure;
// the message is safe to show to API clients.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks malformed or missing required input. Never retried.
	CodeInvalidInput Code = "invalid_input"
	// CodeForbidden marks an ownership or role gate failure.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks an absent target record.
	CodeNotFound Code = "not_found"
	// CodeUnavailable marks an external provider or store failure that could
	// not be absorbed locally.
	CodeUnavailable Code = "unavailable"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal"
)

// Error carries a code, a client-safe message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error with a client-safe message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds a coded error around an underlying cause. The cause stays out of
// client responses but remains reachable via errors.Unwrap for logging.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for uncoded
// errors so transport never leaks raw failure detail.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Package domainerrors provides coded errors shared by every module.
//
// Services create these with New/Wrap and handlers translate them to HTTP
// status codes with ToHTTPStatus. Stores do not use this package directly;
// they return sentinel errors (pkg/platform/sentinel) which services wrap
// into coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and retry semantics.
type Code string

const (
	// CodeValidation: malformed or missing required input. Not retryable
	// without the caller fixing the input.
	CodeValidation Code = "validation"
	// CodeInvalidInput: an identifier or enum value failed to parse.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvariantViolation: a domain invariant would be broken.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeNotFound: reference to an unknown entity.
	CodeNotFound Code = "not_found"
	// CodeInvalidState: the entity is in a state that forbids the operation.
	// Not retryable; the caller must re-fetch current state.
	CodeInvalidState Code = "invalid_state"
	// CodeConflict: a concurrent mutation lost the race. Safe to retry after
	// re-fetching.
	CodeConflict Code = "conflict"
	// CodeBadRequest: the request itself is malformed (bad JSON, bad query).
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized: missing or invalid actor identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: the actor is known but not allowed.
	CodeForbidden Code = "forbidden"
	// CodeInternal: unexpected failure; details stay out of responses.
	CodeInternal Code = "internal_error"
)

// Error carries a code alongside the message and an optional wrapped cause.
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

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code on err, or CodeInternal when err carries
// no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost message, or an empty string for uncoded
// errors so internals never leak into responses.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// ToHTTPStatus maps a code onto a distinguishable HTTP status.
//
// invalid_state gets 422 rather than 409 so clients can tell "re-fetch and
// reconsider" apart from "safe to retry" (conflict).
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeInvariantViolation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInvalidState:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Package domainerrors defines the coded error taxonomy surfaced over HTTP.
// Services translate store/channel sentinel errors into these; the transport
// layer renders them as the {success:false, error:{...}} envelope.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeDuplicateEmail Code = "DUPLICATE_EMAIL"
	CodeNotFound       Code = "NOT_FOUND"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeRequestTimeout Code = "REQUEST_TIMEOUT"
	CodeUnavailable    Code = "SERVICE_UNAVAILABLE"
	CodeInternal       Code = "SERVER_ERROR"
)

// FieldError describes a single invalid field in a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a domain error with a stable code, a human message and optional
// field-level details.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that preserves the underlying cause for logging
// while exposing only code and message to callers.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// NewValidation creates a validation error carrying field-level details.
func NewValidation(fields []FieldError) *Error {
	return &Error{Code: CodeValidation, Message: "Validation failed", Fields: fields}
}

// Is reports whether err is a domain error with the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// From extracts the domain error from err, or wraps it as CodeInternal so the
// transport layer never leaks raw error text to clients.
func From(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return Wrap(CodeInternal, "Something went wrong!", err)
}

// HTTPStatus maps an error code onto its HTTP status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation, CodeDuplicateEmail:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRequestTimeout:
		return http.StatusRequestTimeout
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

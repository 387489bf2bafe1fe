// Package errors defines the coded errors that cross package boundaries.
//
// A service reports what went wrong by code, and the API layer turns that
// code into an HTTP status and an envelope:
//
//	if b.UserID != userID {
//	    return errors.Forbidden("bookmark belongs to another user")
//	}
//
// Callers match codes, never messages:
//
//	if errors.Is(err, errors.ErrNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Aliases so importers of this package need not also import the stdlib one.
var (
	Is = errors.Is
	As = errors.As
)

// Code is the machine-readable kind of an Error. It is sent to clients
// verbatim in the envelope's "code" field.
type Code string

const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeTokenExpired  Code = "TOKEN_EXPIRED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeValidation    Code = "VALIDATION"
	CodeConflict      Code = "CONFLICT"
	CodeUnavailable   Code = "UNAVAILABLE"
	CodeInternal      Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	CodeNotFound:      http.StatusNotFound,
	CodeAlreadyExists: http.StatusConflict,
	CodeConflict:      http.StatusConflict,
	CodeUnauthorized:  http.StatusUnauthorized,
	CodeTokenExpired:  http.StatusUnauthorized,
	CodeForbidden:     http.StatusForbidden,
	CodeValidation:    http.StatusBadRequest,
	CodeUnavailable:   http.StatusServiceUnavailable,
}

// HTTPStatus maps the code to a response status. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error carries a Code plus a human message. Details, when set, is echoed to
// clients (field errors for validation failures).
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports a match against any *Error with the same code, so the package
// sentinels work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var other *Error
	return errors.As(target, &other) && other.Code == e.Code
}

// HTTPStatus is shorthand for e.Code.HTTPStatus().
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithDetails returns a copy with details attached.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.cause = err
	return &cp
}

// Sentinels for errors.Is.
var (
	ErrNotFound      = newError(CodeNotFound, "not found")
	ErrAlreadyExists = newError(CodeAlreadyExists, "already exists")
	ErrUnauthorized  = newError(CodeUnauthorized, "unauthorized")
	ErrTokenExpired  = newError(CodeTokenExpired, "token expired")
	ErrForbidden     = newError(CodeForbidden, "forbidden")
	ErrValidation    = newError(CodeValidation, "validation error")
	ErrConflict      = newError(CodeConflict, "conflict")
	ErrUnavailable   = newError(CodeUnavailable, "service unavailable")
	ErrInternal      = newError(CodeInternal, "internal error")
)

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func NotFound(msg string) *Error      { return newError(CodeNotFound, msg) }
func AlreadyExists(msg string) *Error { return newError(CodeAlreadyExists, msg) }
func Unauthorized(msg string) *Error  { return newError(CodeUnauthorized, msg) }
func TokenExpired(msg string) *Error  { return newError(CodeTokenExpired, msg) }
func Forbidden(msg string) *Error     { return newError(CodeForbidden, msg) }
func Validation(msg string) *Error    { return newError(CodeValidation, msg) }
func Conflict(msg string) *Error      { return newError(CodeConflict, msg) }
func Unavailable(msg string) *Error   { return newError(CodeUnavailable, msg) }

// Validationf formats the message of a validation error.
func Validationf(format string, args ...any) *Error {
	return newError(CodeValidation, fmt.Sprintf(format, args...))
}

// ValidationWithDetails is a validation error carrying per-field messages.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Wrap attaches a code and message to a lower-level error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

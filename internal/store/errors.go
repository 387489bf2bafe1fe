package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a persistence failure tagged with the HTTP status it should
// surface as. Backends customize the sentinels below rather than building
// their own values.
type Error struct {
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is compares status codes only, so ErrNotFound.WithMessage("tag not found")
// still matches ErrNotFound.
func (e *Error) Is(target error) bool {
	var other *Error
	return errors.As(target, &other) && other.Code == e.Code
}

// HTTPCode is the response status for this failure.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a copy with msg as the user-facing text.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// WithCause returns a copy wrapping the driver error.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func sentinel(status int, msg string) *Error {
	return &Error{Code: status, Message: msg}
}

var (
	// ErrNotFound is a missing row, or a row owned by someone else.
	ErrNotFound = sentinel(http.StatusNotFound, "resource not found")
	// ErrAlreadyExists is a unique constraint hit.
	ErrAlreadyExists = sentinel(http.StatusConflict, "resource already exists")
	// ErrInvalidInput is a write the backend rejected as malformed.
	ErrInvalidInput = sentinel(http.StatusBadRequest, "invalid input")
	// ErrUnavailable is a backend that could not be reached or answered badly.
	ErrUnavailable = sentinel(http.StatusBadGateway, "data store request failed")
)

// Package apperr defines the error kinds surfaced by the treatment services.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
)

// Error carries a kind (one of the sentinels above), a human readable message
// and an optional underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Is reports whether target is the kind of this error.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds an ErrNotFound error.
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Validation builds an ErrValidation error.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Forbidden builds an ErrForbidden error.
func Forbidden(format string, args ...interface{}) error {
	return &Error{Kind: ErrForbidden, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a kind.
func Wrap(kind, cause error, msg string) error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Message returns the message of an *Error, or err.Error() for anything else.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

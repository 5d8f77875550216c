// Package apperr classifies failures raised by the sync engine.
package apperr

import (
	"errors"
	"fmt"
)

// Kind groups failures by how callers should react to them.
type Kind string

const (
	Network    Kind = "network"
	Validation Kind = "validation"
	Rejected   Kind = "rejected"
	Media      Kind = "media"
	NotFound   Kind = "not_found"
	Conflict   Kind = "conflict"
	Forbidden  Kind = "forbidden"
)

// Error carries a Kind alongside the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	// Detail is shown to the user verbatim when set.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	case e.Detail != "":
		return e.Detail
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Detail == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrNetwork    = &Error{Kind: Network}
	ErrValidation = &Error{Kind: Validation}
	ErrRejected   = &Error{Kind: Rejected}
	ErrMedia      = &Error{Kind: Media}
	ErrNotFound   = &Error{Kind: NotFound}
	ErrConflict   = &Error{Kind: Conflict}
	ErrForbidden  = &Error{Kind: Forbidden}
)

// Validationf builds a validation failure.
func Validationf(op, format string, args ...any) error {
	return &Error{Kind: Validation, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// NetworkErr wraps a transport failure.
func NetworkErr(op string, err error) error {
	return &Error{Kind: Network, Op: op, Err: err}
}

// Rejection wraps a server-side rejection carrying the server's detail text.
func Rejection(op, detail string) error {
	return &Error{Kind: Rejected, Op: op, Detail: detail}
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the text a user should see for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return err.Error()
}

// New builds a classified error with a user-facing detail.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

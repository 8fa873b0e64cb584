package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers. Only validation, not-found and forbidden
// failures carry their message to the caller; everything else is reported generically.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindConflict   Kind = "concurrency_conflict"
	KindIO         Kind = "io"
	KindUnexpected Kind = "unexpected"
)

const genericFailure = "operation failed, try again"

// ErrTransient marks a store fault that may succeed when the whole transaction is re-run
// (busy database, lost optimistic version race).
var ErrTransient = errors.New("transient store fault")

// Error is a classified failure. Err keeps the cause for diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports a caller whose role lacks the access an operation needs.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Conflict(err error, msg string) error {
	return &Error{Kind: KindConflict, Message: msg, Err: err}
}

func IO(err error, msg string) error {
	return &Error{Kind: KindIO, Message: msg, Err: err}
}

// Transient wraps err so that errors.Is(err, ErrTransient) holds.
func Transient(err error, msg string) error {
	if err == nil {
		return fmt.Errorf("%s: %w", msg, ErrTransient)
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrTransient, err)
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// KindOf returns the outermost classified kind in the chain, or KindUnexpected.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Failure is the caller-facing shape of an error.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Describe hides internal detail for every kind except validation, not-found and forbidden.
func Describe(err error) Failure {
	if err == nil {
		return Failure{}
	}
	kind := KindOf(err)
	switch kind {
	case KindValidation, KindNotFound, KindForbidden:
		var e *Error
		errors.As(err, &e)
		return Failure{Kind: kind, Message: e.Message}
	default:
		return Failure{Kind: kind, Message: genericFailure}
	}
}

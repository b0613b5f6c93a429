package flowcore

import (
	"errors"
	"fmt"
)

// Kind classifies the fatal error conditions the core can raise. All of them
// propagate straight to the caller of Run; no operator recovers locally.
type Kind int

const (
	// KindIOError marks an external source/sink I/O failure.
	KindIOError Kind = iota
	// KindSchemaError marks an unknown field, a type mismatch between a
	// declared and an actual column type, or a schema disagreement between
	// a batch and the node that produced it.
	KindSchemaError
	// KindTypeError marks an aggregate applied to an unsupported input
	// type, an unsupported key type (floating point), or an unsupported
	// column type during emission.
	KindTypeError
	// KindInvariantError marks an internal contract violation (batch
	// column-count mismatch, key-vector length mismatch). It indicates a
	// programming bug in this repository, not bad input.
	KindInvariantError
	// KindUnexpected is the catch-all for conditions that should not occur
	// given well-formed input.
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindIOError:
		return "IOError"
	case KindSchemaError:
		return "SchemaError"
	case KindTypeError:
		return "TypeError"
	case KindInvariantError:
		return "InvariantError"
	case KindUnexpected:
		return "Unexpected"
	default:
		return "Unknown"
	}
}

// Error is the single error type raised by this core. Use errors.As to
// recover the Kind and wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewIOError builds a KindIOError, optionally wrapping cause.
func NewIOError(cause error, format string, args ...any) error {
	e := newError(KindIOError, format, args...)
	e.Err = cause
	return e
}

// NewSchemaError builds a KindSchemaError.
func NewSchemaError(format string, args ...any) error {
	return newError(KindSchemaError, format, args...)
}

// NewTypeError builds a KindTypeError.
func NewTypeError(format string, args ...any) error {
	return newError(KindTypeError, format, args...)
}

// NewInvariantError builds a KindInvariantError.
func NewInvariantError(format string, args ...any) error {
	return newError(KindInvariantError, format, args...)
}

// NewUnexpectedError builds a KindUnexpected.
func NewUnexpectedError(format string, args ...any) error {
	return newError(KindUnexpected, format, args...)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

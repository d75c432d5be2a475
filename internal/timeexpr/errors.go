package timeexpr

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty        = errors.New("empty expression")
	ErrUnrecognized = errors.New("unrecognized expression")
	ErrOutOfRange   = errors.New("value out of range")
)

// Error reports why an expression could not be parsed.
// It unwraps to one of ErrEmpty, ErrUnrecognized or ErrOutOfRange.
type Error struct {
	Expression string
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot parse %q: %s", e.Expression, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(expr, reason string, err error) error {
	return &Error{Expression: expr, Reason: reason, Err: err}
}

func errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

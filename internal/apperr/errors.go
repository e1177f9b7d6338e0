// Package apperr defines the error kinds shared by the library stores,
// the reading session and the backup coordinator.
//
// Callers classify with errors.Is against the sentinels or with the
// Is* helpers:
//
//	if apperr.IsNotFound(err) {
//		// treat as empty
//	}
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a keyed lookup had nothing stored under the key.
	ErrNotFound = errors.New("not found")

	// ErrValidation means input was rejected before anything was written.
	ErrValidation = errors.New("validation failed")

	// ErrIO means a durable store failed to read or write.
	ErrIO = errors.New("storage failure")

	// ErrTransientRender means a rendering surface command failed.
	// These are logged and swallowed; they never abort an operation.
	ErrTransientRender = errors.New("render command failed")
)

// Error carries an operation name and a kind sentinel alongside the cause.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%v: %s", e.Kind, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound reports that what was not present.
func NotFound(what string) error {
	return &Error{Kind: ErrNotFound, Msg: what + " not found"}
}

// Validation builds a validation error with a formatted message.
func Validation(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// ValidationFrom wraps an existing validation failure (for example from
// ozzo-validation) so it classifies as ErrValidation.
func ValidationFrom(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrValidation, Op: op, Err: err}
}

// IO wraps a storage failure for op.
func IO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrIO, Op: op, Err: err}
}

// Render wraps a rendering surface failure for op.
func Render(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrTransientRender, Op: op, Err: err}
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool      { return errors.Is(err, ErrValidation) }
func IsIO(err error) bool              { return errors.Is(err, ErrIO) }
func IsTransientRender(err error) bool { return errors.Is(err, ErrTransientRender) }

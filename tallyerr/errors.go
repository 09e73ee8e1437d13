package tallyerr

import (
	"errors"
	"fmt"
	"strings"
)

// core
var (
	// ErrValidation indicates invalid caller-supplied parameters.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration indicates an unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout indicates the harness could not confirm worker completion in time.
	// It is a harness failure, never a statement about the counter value.
	ErrTimeout = errors.New("contention timeout")
	// ErrInvariant indicates the observed counter state contradicts the number
	// of completed increments (lost or duplicated updates).
	ErrInvariant = errors.New("invariant violation")
	// ErrRetryBudget indicates a bounded optimistic update exhausted its retries.
	ErrRetryBudget = errors.New("retry budget exhausted")
	// ErrParse indicates an observation record could not be decoded.
	ErrParse = errors.New("parse error")
)

// stream
var (
	// ErrWSConnection indicates a websocket upgrade or connection error.
	ErrWSConnection = errors.New("websocket connection error")
	// ErrWSWrite indicates a websocket write failed.
	ErrWSWrite = errors.New("websocket write failed")
	// ErrWSClose indicates a websocket close failed.
	ErrWSClose = errors.New("websocket close failed")
)

// Error is the structured error type shared by all packages in this module.
type Error struct {
	kind    error
	message string
	cause   error
	op      string
	subsys  string
}

// Error returns the error message.
func (e *Error) Error() string {
	var parts []string

	if e.subsys != "" {
		parts = append(parts, fmt.Sprintf("subsys: %s", e.subsys))
	}
	if e.op != "" {
		parts = append(parts, fmt.Sprintf("op: %s", e.op))
	}
	if e.kind != nil {
		parts = append(parts, fmt.Sprintf("kind: %s", e.kind))
	}
	if e.message != "" {
		parts = append(parts, fmt.Sprintf("msg: %s", e.message))
	}
	if e.cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %s", e.cause))
	}

	return strings.Join(parts, " | ")
}

// Is reports whether any error in an Error's chain matches target.
func (e *Error) Is(target error) bool {
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}
	if e.cause != nil && errors.Is(e.cause, target) {
		return true
	}
	return false
}

// As finds the first error in an Error's chain that matches target, and if so, sets target to that error value and returns true.
func (e *Error) As(target any) bool {
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}
	if e.cause != nil && errors.As(e.cause, target) {
		return true
	}
	return false
}

// Unwrap returns the cause of the error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the kind of the error.
func (e *Error) Kind() error {
	return e.kind
}

// Message returns the message of the error.
func (e *Error) Message() string {
	return e.message
}

// Cause returns the cause of the error.
func (e *Error) Cause() error {
	return e.cause
}

// Op returns the operation of the error.
func (e *Error) Op() string {
	return e.op
}

// Subsys returns the subsystem of the error.
func (e *Error) Subsys() string {
	return e.subsys
}

// New creates a new empty Error.
func New() *Error {
	return &Error{}
}

// WithKind sets the kind of the error.
func (e *Error) WithKind(kind error) *Error {
	e.kind = kind
	return e
}

// WithMessage sets the message of the error.
func (e *Error) WithMessage(msg string) *Error {
	e.message = msg
	return e
}

// WithCause sets the cause of the error.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// WithOp sets the operation of the error.
func (e *Error) WithOp(op string) *Error {
	e.op = op
	return e
}

// WithSubsys sets the subsystem of the error.
func (e *Error) WithSubsys(subsys string) *Error {
	e.subsys = subsys
	return e
}

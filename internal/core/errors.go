package core

import (
	"errors"
	"fmt"
)

// Kind is the stable category of a core error. The boundary layer maps kinds
// to its own protocol codes.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error is the error type returned by ledger and report operations.
type Error struct {
	Kind Kind
	Op   string // e.g. "ledger.update"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindNotFound})
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// Matchers for errors.Is.
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrValidation = &Error{Kind: KindValidation}
	ErrForbidden  = &Error{Kind: KindForbidden}
	ErrInternal   = &Error{Kind: KindInternal}
)

func NotFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func Validation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func Forbidden(op, msg string) error {
	return &Error{Kind: KindForbidden, Op: op, Msg: msg}
}

// Internal hides err behind a generic message; the cause stays reachable via
// errors.Unwrap for logging.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Msg: "internal error", Err: err}
}

// KindOf returns the kind of err. Errors that are not *Error are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

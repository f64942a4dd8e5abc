// Package apperr defines the error taxonomy of the booking engine.  Every
// failure that the engine raises on purpose is an *Error carrying one of the
// Kinds below, so that the request layer can map it to a stable response.
// Anything else (driver errors, broker errors) is an infrastructure failure.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindValidation
	KindPrecondition
	KindAuthorization
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_error"
	case KindPrecondition:
		return "precondition_failed"
	case KindAuthorization:
		return "authorization_error"
	case KindConflict:
		return "concurrency_conflict"
	}
	return "unknown"
}

// Sentinels for errors.Is.  An *Error matches the sentinel of its kind.
var (
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation    = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrPrecondition  = &Error{Kind: KindPrecondition, Message: "precondition failed"}
	ErrAuthorization = &Error{Kind: KindAuthorization, Message: "not authorized"}
	ErrConflict      = &Error{Kind: KindConflict, Message: "concurrency conflict"}
)

// Error is a classified domain failure.
//
//	Kind    – taxonomy member.
//	Op      – operation that failed, e.g. "booking.confirm".
//	Message – human readable reason, safe to return to clients.
//	Err     – optional underlying cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, which lets callers test against
// the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing (or inactive) booking, room type or coupon.
func NotFound(op, format string, args ...any) *Error {
	return newf(KindNotFound, op, format, args...)
}

// Validation reports malformed or out-of-range input.
func Validation(op, format string, args ...any) *Error {
	return newf(KindValidation, op, format, args...)
}

// Precondition reports a guard violation on a well-formed request.
func Precondition(op, format string, args ...any) *Error {
	return newf(KindPrecondition, op, format, args...)
}

// Authorization reports a missing role or ownership.
func Authorization(op, format string, args ...any) *Error {
	return newf(KindAuthorization, op, format, args...)
}

// Conflict reports that a competing write consumed what a re-check needed.
func Conflict(op, format string, args ...any) *Error {
	return newf(KindConflict, op, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain, or zero when
// err is not a domain failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// MessageOf returns the client facing message of a domain failure.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

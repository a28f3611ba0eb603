// Package errs provides the error type returned by every ossio operation that
// fails locally or in transport.
//
// A response from the service with a non-2xx status is not an error: it is
// returned as a normal *ossio.Response. Errors carry a Kind so callers can
// branch without string matching:
//
//	res, err := client.PutObject(ctx, in)
//	switch {
//	case errs.IsNotFound(err):
//	    // the source file does not exist, nothing was sent
//	case err != nil:
//	    // transport or local failure
//	case res.Status >= 300:
//	    // the service rejected the request
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // missing source file or destination directory
	ErrKindInvalidArgument          // bad input from the caller
	ErrKindTransport                // connection refused, reset, timeout, cancelled
	ErrKindConfiguration            // malformed credentials or endpoint
	ErrKindIO                       // local read/write failure while streaming
	ErrKindPermissionDenied         // local file permission failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindInvalidArgument:
		return "invalid_argument"
	case ErrKindTransport:
		return "transport"
	case ErrKindConfiguration:
		return "configuration"
	case ErrKindIO:
		return "io"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by ossio.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err is a local not-found failure.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsInvalidArgument reports whether err was caused by bad input from the caller.
func IsInvalidArgument(err error) bool {
	return KindOf(err) == ErrKindInvalidArgument
}

// IsTransport reports whether err happened on the wire.
func IsTransport(err error) bool {
	return KindOf(err) == ErrKindTransport
}

// IsConfiguration reports whether err was raised while constructing a client.
func IsConfiguration(err error) bool {
	return KindOf(err) == ErrKindConfiguration
}

// IsIO reports whether err is a local I/O failure.
func IsIO(err error) bool {
	return KindOf(err) == ErrKindIO
}

// IsPermissionDenied reports whether err is a local permission failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

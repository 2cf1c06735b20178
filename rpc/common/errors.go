package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// ErrKind classifies every failure a call can produce. The failover policy
// branches on the kind, so the taxonomy is closed: only connect-phase
// failures mark an endpoint broken and trigger a retry.
type ErrKind uint8

const (
	// ErrUnknown is an unclassified failure.
	ErrUnknown ErrKind = iota
	// ErrValidation is a local contract failure (empty payload, missing
	// host/port, no registry). No network attempt is made.
	ErrValidation
	// ErrConnect is a connect-phase failure: the connection could not be
	// established at all before the connect deadline, or was refused.
	ErrConnect
	// ErrIOTimeout is a write or read deadline exceeded after the
	// connection was established, or an unexpected peer close.
	ErrIOTimeout
	// ErrProtocol is a malformed frame or entry: invalid frame length,
	// unknown type tag, truncated section. Fatal for the call, never
	// retried.
	ErrProtocol
	// ErrSerialization is a local encode failure (unsupported value
	// shape). Fails before any network I/O.
	ErrSerialization
)

// String returns the string representation of an ErrKind.
func (k ErrKind) String() string {
	switch k {
	case ErrValidation:
		return "validation"
	case ErrConnect:
		return "connect"
	case ErrIOTimeout:
		return "io timeout"
	case ErrProtocol:
		return "protocol"
	case ErrSerialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is a classified call failure.
type Error struct {
	Kind  ErrKind
	Msg   string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --------------------------------------------------------------------------
// Factory Functions
// --------------------------------------------------------------------------

// Errorf creates a classified error with a formatted message.
func Errorf(kind ErrKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error.
func WrapError(kind ErrKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the ErrKind of err, or ErrUnknown if err carries no kind.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrUnknown
}

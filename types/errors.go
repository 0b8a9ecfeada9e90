package types

import (
	"errors"
	"fmt"
)

// ErrStaleHandle is returned by transports when a flow handle refers to
// a binding that has been destroyed or superseded by a rebind.
var ErrStaleHandle = errors.New("stale flow handle")

// BindError is the structured error returned when a transport reports a
// non-success bind result. It is fatal for the whole process: the
// consumption loop propagates it and aborts, no automatic retry is
// performed at this layer.
type BindError struct {
	// Code is the transport-level response code.
	Code int

	// Condition is the classified sub-condition, CondNone when the
	// failure has no recoverable classification.
	Condition Condition

	// Reason is the transport's description of the failure.
	Reason string

	// Err is the underlying transport error, when available.
	Err error
}

// Error implements the error interface.
func (e *BindError) Error() string {
	if e.Condition != CondNone {
		return fmt.Sprintf("bind failed: code=%d condition=%s reason=%s", e.Code, e.Condition, e.Reason)
	}

	return fmt.Sprintf("bind failed: code=%d reason=%s", e.Code, e.Reason)
}

// Unwrap returns the underlying transport error.
func (e *BindError) Unwrap() error {
	return e.Err
}

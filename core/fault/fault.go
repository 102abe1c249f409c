package fault

import (
	"context"
	"errors"
	"fmt"

	"dailies/core/retry"
)

// Kind classifies an error for operators. Values are stable and serialized
// verbatim into reports and the run log.
type Kind string

const (
	// Indexing marks an unreadable file or tree. The index becomes partial.
	Indexing Kind = "INDEXING_ERROR"
	// Collision marks two distinct files sharing one computed identity.
	Collision Kind = "IDENTITY_COLLISION"
	// Execution marks a failed copy for one identity.
	Execution Kind = "EXECUTION_FAILURE"
	// Transcode marks a failed transcode for one identity.
	Transcode Kind = "TRANSCODE_FAILURE"
	// Cancelled marks an item abandoned after cancellation.
	Cancelled Kind = "CANCELLED"
	// DryRun marks an item that was planned but deliberately not executed.
	DryRun Kind = "DRY_RUN"
	// GateRejected marks a verification gate that refused authorization.
	GateRejected Kind = "GATE_REJECTED"
	// Timeout marks an operation that exceeded its retry budget by time.
	Timeout Kind = "TIMEOUT"
)

// Error is the serializable form of a classified error.
type Error struct {
	// Kind is the error classification.
	Kind Kind `json:"kind"`
	// Message is the human-readable error text.
	Message string `json:"message"`

	err error
}

// New wraps err with a kind.
func New(kind Kind, err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: kind, Message: msg, err: err}
}

// Newf builds a kinded error from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// Kinded is implemented by typed errors that know their own kind.
type Kinded interface {
	Kind() Kind
}

// KindOf classifies err. Explicit kinds win, then cancellation and timeouts
// are recognized. Anything else falls back to def.
func KindOf(err error, def Kind) Kind {
	if err == nil {
		return ""
	}

	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}

	switch {
	case errors.Is(err, context.Canceled):
		return Cancelled
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, retry.ErrTimeout):
		return Timeout
	}
	return def
}

// From converts err into a serializable Error, classifying it with KindOf.
func From(err error, def Kind) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return New(KindOf(err, def), err)
}

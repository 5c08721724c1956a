package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Kind classifies why a store operation failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnavailable
	KindPermission
	KindNotFound
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every Store implementation.
type Error struct {
	Op   string
	ID   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.ID != "" {
		msg += " " + e.ID
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) and friends match on kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.ID == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrInvalid     = &Error{Kind: KindInvalid}
	ErrPermission  = &Error{Kind: KindPermission}
	ErrUnavailable = &Error{Kind: KindUnavailable}
)

// NewError builds an *Error of the given kind.
func NewError(op, id string, kind Kind, err error) *Error {
	return &Error{Op: op, ID: id, Kind: kind, Err: err}
}

// NotFound builds the error for a missing document.
func NotFound(op, id string) *Error {
	return &Error{Op: op, ID: id, Kind: KindNotFound, Err: fmt.Errorf("document %s not found", id)}
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return classify(err)
}

// Wrap converts err into an *Error. Errors that already are one pass
// through unchanged; classify decides the kind of anything else.
// A backend passes its own classifier for driver-specific errors.
func Wrap(op, id string, err error, classifiers ...func(error) Kind) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	for _, c := range classifiers {
		if k := c(err); k != KindUnknown {
			return &Error{Op: op, ID: id, Kind: k, Err: err}
		}
	}
	return &Error{Op: op, ID: id, Kind: classify(err), Err: err}
}

// classify recognizes transport-level failures common to all backends.
func classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET):
		return KindUnavailable
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return KindPermission
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return KindUnavailable
	}
	return KindUnknown
}

// Package bterr tags every error this client returns with one of the
// kinds from the error-handling design: Format, Io, Tracker, Peer or
// Integrity. The CLI driver uses the kind to pick an exit message; it
// never needs to type-switch on concrete error values.
package bterr

import "github.com/pkg/errors"

type Kind string

const (
	Format    Kind = "format"
	Io        Kind = "io"
	Tracker   Kind = "tracker"
	Peer      Kind = "peer"
	Integrity Kind = "integrity"
)

type kindError struct {
	kind Kind
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return string(e.kind) + ": " + e.msg
	}
	return string(e.kind) + ": " + e.msg + ": " + e.err.Error()
}

func (e *kindError) Unwrap() error { return e.err }

// New builds a kind-tagged error with a formatted message and no cause.
func New(kind Kind, format string, args ...interface{}) error {
	return &kindError{kind: kind, msg: errors.Errorf(format, args...).Error()}
}

// Wrap tags cause with kind, keeping cause in the error chain so
// errors.Is and errors.As still see through to it.
func Wrap(kind Kind, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, msg: msg, err: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, msg: errors.Errorf(format, args...).Error(), err: errors.WithStack(cause)}
}

// KindOf recovers the Kind tagged onto err, if any.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	for err != nil {
		if k, ok := err.(*kindError); ok {
			ke = k
			break
		}
		err = errors.Unwrap(err)
	}
	if ke == nil {
		return "", false
	}
	return ke.kind, true
}

package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/judgesort/internal/sorter"
)

// Sentinel errors for each failure kind. Match them with errors.Is; the
// concrete error returned by a backend is always an *Error.
var (
	ErrUnavailable       = errors.New("oracle unavailable")
	ErrCredentials       = errors.New("oracle credentials rejected")
	ErrMalformedResponse = errors.New("oracle response malformed")
	ErrInvalidInput      = sorter.ErrInvalidInput
)

// ErrorKind classifies an oracle failure.
type ErrorKind string

const (
	KindUnavailable  ErrorKind = "unavailable"
	KindCredentials  ErrorKind = "credentials"
	KindMalformed    ErrorKind = "malformed"
	KindInvalidInput ErrorKind = "invalid-input"
)

// sentinel returns the package sentinel for k.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnavailable:
		return ErrUnavailable
	case KindCredentials:
		return ErrCredentials
	case KindMalformed:
		return ErrMalformedResponse
	case KindInvalidInput:
		return ErrInvalidInput
	default:
		return nil
	}
}

// ParseErrorKind maps a wire name back to an ErrorKind. Unknown names are
// treated as unavailability.
func ParseErrorKind(s string) ErrorKind {
	switch k := ErrorKind(s); k {
	case KindUnavailable, KindCredentials, KindMalformed, KindInvalidInput:
		return k
	default:
		return KindUnavailable
	}
}

// Error is returned by every Judge backend in this package.
type Error struct {
	Kind    ErrorKind
	Backend string
	Status  int // HTTP status when the backend is HTTP based; 0 otherwise.
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("oracle: %s: %s", e.Backend, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the ErrorKind carried by err, or "" when err is not an
// oracle failure. Bare sentinels and context expiry are classified too.
func KindOf(err error) ErrorKind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrCredentials):
		return KindCredentials
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindUnavailable
	}
	return ""
}

func newError(kind ErrorKind, backend string, status int, msg string, err error) *Error {
	return &Error{Kind: kind, Backend: backend, Status: status, Message: msg, Err: err}
}

// statusKind classifies an HTTP status code from a judgment service.
func statusKind(code int) ErrorKind {
	switch {
	case code == 401 || code == 403:
		return KindCredentials
	case code == 429 || code >= 500:
		return KindUnavailable
	case code == 400 || code == 422:
		return KindInvalidInput
	default:
		return KindUnavailable
	}
}

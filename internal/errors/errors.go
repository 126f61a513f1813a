package errors

import (
	"errors"
	"fmt"
)

// Error classes surfaced by the test client. Every request-time error aborts the
// rest of the callback chain; nothing is retried.
var (
	// Startup
	ErrConfiguration = errors.New("configuration error")

	// Callback
	ErrProvider      = errors.New("authorization server returned an error")
	ErrCsrfMismatch  = errors.New("state mismatch")
	ErrStateNotFound = fmt.Errorf("%w: state not found", ErrCsrfMismatch)
	ErrStateExpired  = fmt.Errorf("%w: state expired", ErrCsrfMismatch)
	ErrStateConsumed = fmt.Errorf("%w: state already used", ErrCsrfMismatch)

	// Outbound calls
	ErrTransport         = errors.New("transport error")
	ErrProtocolViolation = errors.New("protocol violation")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need only one errors import.
func New(text string) error {
	return errors.New(text)
}

package securestore

import (
	"errors"
	"fmt"
)

// Error is a secure-store error with a stable code.
//
// Codes have the form SS-<AREA>-<NNNN>. errors.Is matches on Code, so a
// sentinel still matches after WithDetails or WithCause.
type Error struct {
	Code    string // Error code (e.g., "SS-KEY-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// WithCause returns a copy of the error wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// Code extracts the error code from err, or "" when err carries none.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

var (
	// ErrInvalidKey indicates a key that is empty, too long, or contains a
	// character outside [A-Za-z0-9._-].
	ErrInvalidKey = newError("SS-KEY-4000", "invalid key")

	// ErrInvalidValue indicates a value that is not valid UTF-8.
	ErrInvalidValue = newError("SS-VAL-4000", "invalid value")

	// ErrValueTooLarge indicates a value over the configured size cap.
	ErrValueTooLarge = newError("SS-VAL-4130", "value too large")

	// ErrWrongSecret indicates the passphrase or key does not open the keyring.
	ErrWrongSecret = newError("SS-SEC-4010", "wrong passphrase or key")

	// ErrCorrupted indicates a record that fails authentication or decoding.
	ErrCorrupted = newError("SS-SEC-4220", "record corrupted")

	// ErrInvalidConfig indicates a rejected configuration.
	ErrInvalidConfig = newError("SS-CFG-4000", "invalid configuration")

	// ErrStorage wraps a backend failure.
	ErrStorage = newError("SS-SYS-5001", "storage backend error")

	// ErrSnapshotUnsupported indicates the backend cannot back up or restore.
	ErrSnapshotUnsupported = newError("SS-SYS-5010", "backend does not support snapshots")

	// ErrClosed indicates use of a closed store.
	ErrClosed = newError("SS-SYS-5030", "store closed")
)

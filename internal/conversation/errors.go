// ABOUTME: Error taxonomy for per-request failures across the gateway
// ABOUTME: Every error carries a kind that maps to HTTP status or WS error frame

package conversation

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a per-request failure. Startup misconfiguration is
// handled separately by config validation and never reaches this taxonomy.
type ErrorKind string

const (
	KindConfigNotFound ErrorKind = "config_not_found"
	KindStorage        ErrorKind = "storage_error"
	KindProvider       ErrorKind = "provider_error"
	KindValidation     ErrorKind = "validation_error"
)

// Error wraps an underlying failure with its taxonomy kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Errorf wraps a formatted message with the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the taxonomy kind from err, defaulting to storage for
// unclassified failures so they surface as 5xx rather than being swallowed.
func KindOf(err error) ErrorKind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return KindStorage
}

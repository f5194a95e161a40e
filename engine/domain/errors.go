package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrInvalidPrice       = errors.New("invalid price")
	ErrInvalidDownPayment = errors.New("invalid down payment")
	ErrUnsupportedTerm    = errors.New("unsupported term")
	ErrInvalidTopK        = errors.New("invalid top_k")
	ErrInvalidVehicle     = errors.New("invalid vehicle")
	ErrYearOutOfRange     = errors.New("year out of range")
	ErrEmptyMessage       = errors.New("empty message")
	ErrMissingUserID      = errors.New("missing user id")
)

// Pipeline errors.
var (
	// ErrEmptyCatalog is fatal at startup and returned by search on an empty store.
	ErrEmptyCatalog            = errors.New("catalog is empty")
	ErrClassificationTimeout   = errors.New("classification timed out")
	ErrExtractionFailure       = errors.New("could not extract financing data")
	ErrDependencyUnavailable   = errors.New("dependency unavailable")
	ErrDimensionMismatch       = errors.New("embedding dimension mismatch")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HandlerFailure marks an unrecoverable error raised while handling an intent.
type HandlerFailure struct {
	Intent Intent
	Err    error
}

func (e *HandlerFailure) Error() string {
	return fmt.Sprintf("handler %s: %v", e.Intent, e.Err)
}

func (e *HandlerFailure) Unwrap() error { return e.Err }

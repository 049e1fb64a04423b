// Package errors provides structured error handling for the catalog module.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies catalog errors.
type ErrorType string

const (
	// ErrorTypeNotFound indicates a lookup matched nothing
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates rejected caller input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeStore indicates a failure in the record store
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeInternal indicates internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// Sentinel errors for common scenarios
var (
	// ErrMovieNotFound indicates a movie id or title doesn't exist
	ErrMovieNotFound = errors.New("movie not found")

	// ErrInvalidInput indicates invalid request parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownField indicates a field name that cannot be resolved
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownNamedQuery indicates an unrecognized named composite
	ErrUnknownNamedQuery = errors.New("unknown named query")

	// ErrStore indicates the record store failed
	ErrStore = errors.New("store operation failed")
)

// CatalogError provides structured error information with context
type CatalogError struct {
	Type    ErrorType
	Op      string // Operation that failed, e.g. "get_movie"
	MovieID string
	Field   string
	Err     error
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	switch {
	case e.MovieID != "":
		return fmt.Sprintf("%s error in %s [movie=%s]: %v", e.Type, e.Op, e.MovieID, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s error in %s [field=%s]: %v", e.Type, e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %v", e.Type, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// New creates a new CatalogError
func New(errType ErrorType, op string, err error) *CatalogError {
	return &CatalogError{Type: errType, Op: op, Err: err}
}

// WithMovie adds movie context to the error
func (e *CatalogError) WithMovie(id string) *CatalogError {
	e.MovieID = id
	return e
}

// WithField adds field context to the error
func (e *CatalogError) WithField(field string) *CatalogError {
	e.Field = field
	return e
}

// NotFound creates a not-found error for a movie lookup
func NotFound(op, id string) *CatalogError {
	return New(ErrorTypeNotFound, op, ErrMovieNotFound).WithMovie(id)
}

// Validation creates a validation error
func Validation(op string, err error) *CatalogError {
	return New(ErrorTypeValidation, op, fmt.Errorf("%w: %w", ErrInvalidInput, err))
}

// UnknownField creates a validation error for an unresolvable field name
func UnknownField(op, field string) *CatalogError {
	return New(ErrorTypeValidation, op, fmt.Errorf("%w: %w", ErrInvalidInput, ErrUnknownField)).WithField(field)
}

// UnknownNamedQuery creates a validation error for an unrecognized composite name
func UnknownNamedQuery(op, name string) *CatalogError {
	return New(ErrorTypeValidation, op, fmt.Errorf("%w: %w", ErrInvalidInput, ErrUnknownNamedQuery)).WithField(name)
}

// Store wraps a record store failure. The original error stays reachable
// through errors.Is and errors.As.
func Store(op string, err error) *CatalogError {
	return New(ErrorTypeStore, op, fmt.Errorf("%w: %w", ErrStore, err))
}

// Wrap wraps an error with operation context if it's not already a CatalogError
func Wrap(err error, errType ErrorType, op string) error {
	if err == nil {
		return nil
	}
	var cErr *CatalogError
	if errors.As(err, &cErr) {
		return err
	}
	return New(errType, op, err)
}

// GetType extracts the error type from an error
func GetType(err error) ErrorType {
	var cErr *CatalogError
	if errors.As(err, &cErr) {
		return cErr.Type
	}
	return ErrorTypeInternal
}

// Package apperrors defines the error taxonomy returned by the person
// repository and the classification of document-store driver errors.
package apperrors

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrValidation is returned when a draft fails schema validation
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an operation requires an existing document
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is returned when the store cannot be reached
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStore is returned for any other store-reported failure
	ErrStore = errors.New("store error")
)

// ValidationError names the offending field. Index is the position of the
// draft within a batch, or -1 for single-document operations.
type ValidationError struct {
	Field   string
	Index   int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("validation failed for item %d field %q: %s", e.Index, e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Entity, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// StoreUnavailableError wraps a connectivity failure.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// StoreError wraps any other failure reported by the store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: store error: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for a single document
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Index: -1, Message: message}
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

// Classify maps a raw store error to the taxonomy. Errors that are already
// classified are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		unavailable *StoreUnavailableError
		storeErr    *StoreError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &notFound),
		errors.As(err, &unavailable), errors.As(err, &storeErr):
		return err
	case isUnavailable(err):
		return &StoreUnavailableError{Op: op, Err: err}
	default:
		return &StoreError{Op: op, Err: err}
	}
}

func isUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		mongo.IsNetworkError(err) ||
		mongo.IsTimeout(err)
}

// Kind returns a short label for the error class, used as a metric label.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	case IsStoreUnavailable(err):
		return "unavailable"
	case IsStore(err):
		return "store"
	default:
		return "unknown"
	}
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreUnavailable checks if an error is a connectivity error
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsStore checks if an error is a generic store error
func IsStore(err error) bool {
	return errors.Is(err, ErrStore)
}

// IsDuplicateKey reports whether the store rejected a write on a unique index.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

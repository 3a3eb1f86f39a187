package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all record store implementations.
var (
	// ErrNotFound is returned when a record is absent, empty or unreadable.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned by Create when the key is taken.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidKey is returned when a collection or key could escape its
	// directory or exceeds the allowed length.
	ErrInvalidKey = errors.New("invalid record key")

	// ErrTimeout is returned when an operation exceeds its deadline.
	ErrTimeout = errors.New("store operation timed out")

	// ErrStorageIO is returned for any other backend failure.
	ErrStorageIO = errors.New("storage failure")

	// Collection-specific "not found" errors

	// ErrAccountNotFound indicates that no account is registered for the phone.
	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)

	// ErrSessionNotFound indicates that the session token is unknown.
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// ErrCheckNotFound indicates that the check id is unknown.
	ErrCheckNotFound = fmt.Errorf("%w: check", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExistsError checks if the error reports a taken key.
func IsAlreadyExistsError(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Collection string // The collection (e.g., "Accounts")
	Key        string // The record key
	Operation  string // The operation that failed (e.g., "create", "update")
	Message    string // Error message
	Err        error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s/%s failed: %s: %v",
			e.Operation,
			e.Collection,
			e.Key,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s/%s failed: %s", e.Operation, e.Collection, e.Key, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError for the given record and operation.
func NewStoreError(collection, key, operation, message string, err error) *StoreError {
	return &StoreError{
		Collection: collection,
		Key:        key,
		Operation:  operation,
		Message:    message,
		Err:        err,
	}
}

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/pulse-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers use errors.Is to check for them; the API layer maps them to HTTP
// status codes.
var (
	// ErrUnauthorized indicates the session is missing, unknown, expired or
	// bound to a different account.
	ErrUnauthorized = errors.New("invalid session")

	// ErrInvalidCredentials is returned by login for both an unknown phone and
	// a wrong password.
	ErrInvalidCredentials = errors.New("invalid phone or password")

	// ErrSessionExpired indicates an attempt to extend a session that is no
	// longer active.
	ErrSessionExpired = errors.New("session has expired")

	// ErrQuotaExceeded indicates the account already owns the maximum number
	// of checks.
	ErrQuotaExceeded = errors.New("check quota exceeded")

	// ErrConsistency indicates the account and check collections disagree.
	ErrConsistency = errors.New("account and check records are inconsistent")

	// ErrAccountExists indicates the phone is already registered.
	ErrAccountExists = fmt.Errorf("%w: phone already registered", store.ErrAlreadyExists)
)

// ServiceError is a custom error type for unexpected service failures.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CascadeError reports an account delete that removed only some of the
// account's checks. The account is kept and lists exactly the Remaining ids.
type CascadeError struct {
	Phone     string
	Deleted   []string
	Remaining []string
	Err       error
}

// Error implements the error interface for CascadeError.
func (e *CascadeError) Error() string {
	return fmt.Sprintf("delete account %s: %d checks deleted, %d remaining [%s]: %v",
		e.Phone, len(e.Deleted), len(e.Remaining), strings.Join(e.Remaining, ","), e.Err)
}

// Unwrap matches both ErrConsistency and the first check delete failure.
func (e *CascadeError) Unwrap() []error {
	return []error{ErrConsistency, e.Err}
}

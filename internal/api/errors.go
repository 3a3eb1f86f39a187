package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/service"
	"github.com/phrazzld/pulse-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
//
// Order matters: a CascadeError wraps both ErrConsistency and the store
// failure, and an unreadable record wraps both ErrNotFound and ErrStorageIO.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Server-side failures that must never look like client errors
	case errors.Is(err, service.ErrConsistency):
		return http.StatusInternalServerError
	case errors.Is(err, store.ErrTimeout):
		return http.StatusServiceUnavailable

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidKey),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionExpired),
		errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusBadRequest

	// Authorization errors
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "internal server error"
	}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, service.ErrConsistency):
		return "internal server error"
	case errors.Is(err, store.ErrTimeout):
		return "service temporarily unavailable"

	case errors.As(err, &verr):
		// Only names request fields and rules.
		return verr.Error()
	case errors.Is(err, domain.ErrValidation), errors.Is(err, store.ErrInvalidKey):
		return "validation failed"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "invalid phone or password"
	case errors.Is(err, service.ErrSessionExpired):
		return "session has expired"
	case errors.Is(err, service.ErrQuotaExceeded):
		return "check quota exceeded"

	case errors.Is(err, service.ErrUnauthorized):
		return "invalid session"

	case errors.Is(err, service.ErrAccountExists):
		return "phone already registered"
	case errors.Is(err, store.ErrAlreadyExists):
		return "record already exists"

	case errors.Is(err, store.ErrAccountNotFound):
		return "account not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, store.ErrCheckNotFound):
		return "check not found"
	case errors.Is(err, store.ErrNotFound):
		return "not found"

	default:
		return "internal server error"
	}
}

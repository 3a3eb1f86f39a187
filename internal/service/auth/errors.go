package auth

import "errors"

// Common credential and identifier errors
var (
	// ErrEmptyInput indicates an empty string was passed for hashing
	ErrEmptyInput = errors.New("input to hash is empty")

	// ErrMissingSecret indicates the hashing secret is not configured
	ErrMissingSecret = errors.New("hash secret is missing")

	// ErrUnknownAlgorithm indicates an unsupported hash algorithm name
	ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

	// ErrInvalidLength indicates a non-positive identifier length
	ErrInvalidLength = errors.New("identifier length must be positive")
)

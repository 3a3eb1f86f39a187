package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrNotFound",
			err:      fmt.Errorf("failed to do something: %w", ErrNotFound),
			expected: true,
		},
		{
			name:     "ErrAccountNotFound",
			err:      ErrAccountNotFound,
			expected: true,
		},
		{
			name:     "ErrSessionNotFound",
			err:      ErrSessionNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrCheckNotFound",
			err:      fmt.Errorf("failed to find check: %w", ErrCheckNotFound),
			expected: true,
		},
		{
			name:     "ErrAlreadyExists",
			err:      ErrAlreadyExists,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	if !IsAlreadyExistsError(fmt.Errorf("create account: %w", ErrAlreadyExists)) {
		t.Errorf("wrapped ErrAlreadyExists not recognized")
	}
	if IsAlreadyExistsError(ErrNotFound) {
		t.Errorf("ErrNotFound reported as already exists")
	}
}

func TestStoreError(t *testing.T) {
	originalErr := errors.New("disk full")
	storeErr := NewStoreError("Accounts", "12345678901", "create", "write record", originalErr)

	expected := "create operation on Accounts/12345678901 failed: write record: disk full"
	if got := storeErr.Error(); got != expected {
		t.Errorf("StoreError.Error() = %v, want %v", got, expected)
	}

	if !errors.Is(storeErr, originalErr) {
		t.Errorf("errors.Is() not recognizing the wrapped error")
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{"12345678901", "abcdefghij0123456789", "a_b-C"}
	for _, key := range valid {
		if err := ValidateKey(CollectionAccounts, key); err != nil {
			t.Errorf("ValidateKey(%q) = %v, want nil", key, err)
		}
	}

	invalid := []string{"", "../etc/passwd", "a/b", "a.json", "with space", string(make([]byte, 129))}
	for _, key := range invalid {
		if err := ValidateKey(CollectionAccounts, key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", key, err)
		}
	}

	if err := ValidateKey("../Accounts", "x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("invalid collection accepted: %v", err)
	}
}

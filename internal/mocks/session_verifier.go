package mocks

import (
	"context"
	"errors"
)

// MockSessionVerifier implements service.SessionVerifier for testing.
// Without function fields it accepts only Token for Phone.
type MockSessionVerifier struct {
	VerifyFn func(ctx context.Context, token, phone string) bool
	OwnerFn  func(ctx context.Context, token string) (string, error)
	DeleteFn func(ctx context.Context, token string) error

	Token string
	Phone string

	// DeletedTokens records every token passed to Delete
	DeletedTokens []string
}

// Verify implements the SessionVerifier interface
func (m *MockSessionVerifier) Verify(ctx context.Context, token, phone string) bool {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, token, phone)
	}
	return token != "" && token == m.Token && phone == m.Phone
}

// Owner implements the SessionVerifier interface
func (m *MockSessionVerifier) Owner(ctx context.Context, token string) (string, error) {
	if m.OwnerFn != nil {
		return m.OwnerFn(ctx, token)
	}
	if token == "" || token != m.Token {
		return "", errors.New("invalid session")
	}
	return m.Phone, nil
}

// Delete implements the SessionVerifier interface
func (m *MockSessionVerifier) Delete(ctx context.Context, token string) error {
	m.DeletedTokens = append(m.DeletedTokens, token)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, token)
	}
	return nil
}

package mocks

import "errors"

// MockHasher implements auth.Hasher for testing.
// By default it "hashes" by prefixing the input with "hashed:".
type MockHasher struct {
	HashFn   func(input string) (string, error)
	VerifyFn func(digest, input string) bool

	// HashCallCount tracks how many times Hash was called
	HashCallCount int
}

// Hash implements the Hasher interface
func (m *MockHasher) Hash(input string) (string, error) {
	m.HashCallCount++
	if m.HashFn != nil {
		return m.HashFn(input)
	}
	if input == "" {
		return "", errors.New("empty input")
	}
	return "hashed:" + input, nil
}

// Verify implements the Hasher interface
func (m *MockHasher) Verify(digest, input string) bool {
	if m.VerifyFn != nil {
		return m.VerifyFn(digest, input)
	}
	return digest != "" && digest == "hashed:"+input
}

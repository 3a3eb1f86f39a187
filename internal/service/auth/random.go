package auth

import (
	"crypto/rand"
	"fmt"
)

// Alphabet is the character set of generated identifiers.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// IDGenerator returns a random identifier of length n.
type IDGenerator func(n int) (string, error)

// largest multiple of len(Alphabet) that fits in a byte; bytes at or above
// it are rejected so every character is equally likely.
const rejectAbove = 256 - 256%len(Alphabet)

// RandomString returns n characters drawn uniformly from Alphabet using
// crypto/rand.
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+1)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

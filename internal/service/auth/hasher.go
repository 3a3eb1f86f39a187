package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported hash algorithm names.
const (
	AlgorithmHMACSHA256 = "hmac-sha256"
	AlgorithmArgon2ID   = "argon2id"
	AlgorithmBcrypt     = "bcrypt"
)

// argon2id parameters: one pass, 64 MiB, four lanes, 32-byte key.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// Hasher turns passwords into digests that can be stored and later checked.
type Hasher interface {
	// Hash returns the digest for input. Empty input returns ErrEmptyInput.
	Hash(input string) (string, error)

	// Verify reports whether input hashes to digest, in constant time.
	Verify(digest, input string) bool
}

// NewHasher creates the Hasher for the named algorithm keyed by secret.
// An empty algorithm selects hmac-sha256.
func NewHasher(algorithm, secret string) (Hasher, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmHMACSHA256:
		return &HMACHasher{secret: []byte(secret)}, nil
	case AlgorithmArgon2ID:
		return &Argon2Hasher{secret: []byte(secret)}, nil
	case AlgorithmBcrypt:
		return &BcryptHasher{pepper: &HMACHasher{secret: []byte(secret)}, cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
}

// HMACHasher produces lowercase hex HMAC-SHA256 digests.
type HMACHasher struct {
	secret []byte
}

// Hash implements Hasher.
func (h *HMACHasher) Hash(input string) (string, error) {
	if input == "" {
		return "", ErrEmptyInput
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(input))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify implements Hasher.
func (h *HMACHasher) Verify(digest, input string) bool {
	return verifyDeterministic(h, digest, input)
}

// Argon2Hasher produces hex argon2id keys salted with the shared secret, so
// equal inputs yield equal digests.
type Argon2Hasher struct {
	secret []byte
}

// Hash implements Hasher.
func (h *Argon2Hasher) Hash(input string) (string, error) {
	if input == "" {
		return "", ErrEmptyInput
	}
	key := argon2.IDKey([]byte(input), h.secret, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key), nil
}

// Verify implements Hasher.
func (h *Argon2Hasher) Verify(digest, input string) bool {
	return verifyDeterministic(h, digest, input)
}

// BcryptHasher bcrypts the HMAC of the input. Digests are salted per call,
// so Verify must be used for comparison.
type BcryptHasher struct {
	pepper *HMACHasher
	cost   int
}

// Hash implements Hasher.
func (h *BcryptHasher) Hash(input string) (string, error) {
	peppered, err := h.pepper.Hash(input)
	if err != nil {
		return "", err
	}
	out, err := bcrypt.GenerateFromPassword([]byte(peppered), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(out), nil
}

// Verify implements Hasher.
func (h *BcryptHasher) Verify(digest, input string) bool {
	peppered, err := h.pepper.Hash(input)
	if err != nil || digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(peppered)) == nil
}

func verifyDeterministic(h Hasher, digest, input string) bool {
	if digest == "" {
		return false
	}
	computed, err := h.Hash(input)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

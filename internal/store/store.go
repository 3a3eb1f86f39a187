package store

import (
	"context"
	"encoding/json"
	"reflect"
	"regexp"
)

// Collection names. They double as directory names in the file backend.
const (
	CollectionAccounts = "Accounts"
	CollectionSessions = "Sessions"
	CollectionChecks   = "Checks"
)

// Operation names used in StoreError and metrics labels.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
)

// MaxKeyLength bounds collection names and keys.
const MaxKeyLength = 128

var keyRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// RecordStore persists JSON-serializable values by (collection, key).
//
// Implementations must return ErrAlreadyExists from Create when the key is
// taken, ErrNotFound from Read, Update and Delete when it is absent, and
// ErrInvalidKey for keys that fail ValidateKey. A stored value that cannot
// be decoded is returned as an empty value without error.
type RecordStore interface {
	// Create stores value under a new key.
	Create(ctx context.Context, collection, key string, value any) error

	// Read decodes the stored value into dst.
	Read(ctx context.Context, collection, key string, dst any) error

	// Update fully replaces an existing value.
	Update(ctx context.Context, collection, key string, value any) error

	// Delete removes an existing record.
	Delete(ctx context.Context, collection, key string) error
}

// ValidateKey reports ErrInvalidKey unless both collection and key consist
// of 1-128 letters, digits, underscores or hyphens.
func ValidateKey(collection, key string) error {
	if !keyRegex.MatchString(collection) {
		return NewStoreError(collection, key, "validate", "invalid collection name", ErrInvalidKey)
	}
	if !keyRegex.MatchString(key) {
		return NewStoreError(collection, key, "validate", "invalid key", ErrInvalidKey)
	}
	return nil
}

// DecodeRecord unmarshals a stored value into dst. Undecodable data leaves
// dst at its zero value and the decode error is returned for logging.
// Callers treat such records as empty rather than failing the read.
func DecodeRecord(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		rv := reflect.ValueOf(dst)
		if rv.Kind() == reflect.Pointer && !rv.IsNil() {
			rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
		}
		return err
	}
	return nil
}

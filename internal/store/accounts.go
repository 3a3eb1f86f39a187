package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/pulse-api/internal/domain"
)

// AccountStore defines the interface for account persistence.
type AccountStore interface {
	// Create saves a new account keyed by its phone.
	// Returns ErrAlreadyExists if the phone is already registered.
	Create(ctx context.Context, account *domain.Account) error

	// Get retrieves an account by phone.
	// Returns ErrAccountNotFound if the account does not exist or the stored
	// record is empty or malformed.
	Get(ctx context.Context, phone string) (*domain.Account, error)

	// Update replaces an existing account.
	// Returns ErrAccountNotFound if the account does not exist.
	Update(ctx context.Context, account *domain.Account) error

	// Delete removes an account by phone.
	// Returns ErrAccountNotFound if the account does not exist.
	Delete(ctx context.Context, phone string) error
}

// AccountCollection implements AccountStore over a RecordStore.
type AccountCollection struct {
	records RecordStore
}

var _ AccountStore = (*AccountCollection)(nil)

// NewAccountCollection creates an AccountCollection.
func NewAccountCollection(records RecordStore) *AccountCollection {
	return &AccountCollection{records: records}
}

func (c *AccountCollection) Create(ctx context.Context, account *domain.Account) error {
	if err := c.records.Create(ctx, CollectionAccounts, account.Phone, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (c *AccountCollection) Get(ctx context.Context, phone string) (*domain.Account, error) {
	var account domain.Account
	if err := c.records.Read(ctx, CollectionAccounts, phone, &account); err != nil {
		return nil, notFoundAs(ErrAccountNotFound, "get account", err)
	}
	if account.Phone == "" {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (c *AccountCollection) Update(ctx context.Context, account *domain.Account) error {
	if err := c.records.Update(ctx, CollectionAccounts, account.Phone, account); err != nil {
		return notFoundAs(ErrAccountNotFound, "update account", err)
	}
	return nil
}

func (c *AccountCollection) Delete(ctx context.Context, phone string) error {
	if err := c.records.Delete(ctx, CollectionAccounts, phone); err != nil {
		return notFoundAs(ErrAccountNotFound, "delete account", err)
	}
	return nil
}

// notFoundAs replaces a plain not-found error with the collection sentinel.
// Unreadable records keep their storage error so both kinds still match.
func notFoundAs(sentinel error, op string, err error) error {
	if errors.Is(err, ErrNotFound) && !errors.Is(err, ErrStorageIO) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

package store

import (
	"context"
	"fmt"

	"github.com/phrazzld/pulse-api/internal/domain"
)

// CheckStore defines the interface for check persistence.
type CheckStore interface {
	// Create saves a new check keyed by its id.
	// Returns ErrAlreadyExists if the id collides with an existing one.
	Create(ctx context.Context, check *domain.Check) error

	// Get retrieves a check by id.
	// Returns ErrCheckNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Check, error)

	// Update replaces an existing check.
	Update(ctx context.Context, check *domain.Check) error

	// Delete removes a check by id.
	Delete(ctx context.Context, id string) error
}

// CheckCollection implements CheckStore over a RecordStore.
type CheckCollection struct {
	records RecordStore
}

var _ CheckStore = (*CheckCollection)(nil)

// NewCheckCollection creates a CheckCollection.
func NewCheckCollection(records RecordStore) *CheckCollection {
	return &CheckCollection{records: records}
}

func (c *CheckCollection) Create(ctx context.Context, check *domain.Check) error {
	if err := c.records.Create(ctx, CollectionChecks, check.CheckID, check); err != nil {
		return fmt.Errorf("create check: %w", err)
	}
	return nil
}

func (c *CheckCollection) Get(ctx context.Context, id string) (*domain.Check, error) {
	var check domain.Check
	if err := c.records.Read(ctx, CollectionChecks, id, &check); err != nil {
		return nil, notFoundAs(ErrCheckNotFound, "get check", err)
	}
	if check.CheckID == "" {
		return nil, ErrCheckNotFound
	}
	return &check, nil
}

func (c *CheckCollection) Update(ctx context.Context, check *domain.Check) error {
	if err := c.records.Update(ctx, CollectionChecks, check.CheckID, check); err != nil {
		return notFoundAs(ErrCheckNotFound, "update check", err)
	}
	return nil
}

func (c *CheckCollection) Delete(ctx context.Context, id string) error {
	if err := c.records.Delete(ctx, CollectionChecks, id); err != nil {
		return notFoundAs(ErrCheckNotFound, "delete check", err)
	}
	return nil
}

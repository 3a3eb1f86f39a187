package store

import (
	"context"
	"fmt"

	"github.com/phrazzld/pulse-api/internal/domain"
)

// SessionStore defines the interface for session persistence.
type SessionStore interface {
	// Create saves a new session keyed by its token.
	// Returns ErrAlreadyExists if the token collides with an existing one.
	Create(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by token.
	// Returns ErrSessionNotFound if it does not exist.
	Get(ctx context.Context, token string) (*domain.Session, error)

	// Update replaces an existing session.
	Update(ctx context.Context, session *domain.Session) error

	// Delete removes a session by token.
	Delete(ctx context.Context, token string) error
}

// SessionCollection implements SessionStore over a RecordStore.
type SessionCollection struct {
	records RecordStore
}

var _ SessionStore = (*SessionCollection)(nil)

// NewSessionCollection creates a SessionCollection.
func NewSessionCollection(records RecordStore) *SessionCollection {
	return &SessionCollection{records: records}
}

func (c *SessionCollection) Create(ctx context.Context, session *domain.Session) error {
	if err := c.records.Create(ctx, CollectionSessions, session.SessionID, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (c *SessionCollection) Get(ctx context.Context, token string) (*domain.Session, error) {
	var session domain.Session
	if err := c.records.Read(ctx, CollectionSessions, token, &session); err != nil {
		return nil, notFoundAs(ErrSessionNotFound, "get session", err)
	}
	if session.SessionID == "" {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (c *SessionCollection) Update(ctx context.Context, session *domain.Session) error {
	if err := c.records.Update(ctx, CollectionSessions, session.SessionID, session); err != nil {
		return notFoundAs(ErrSessionNotFound, "update session", err)
	}
	return nil
}

func (c *SessionCollection) Delete(ctx context.Context, token string) error {
	if err := c.records.Delete(ctx, CollectionSessions, token); err != nil {
		return notFoundAs(ErrSessionNotFound, "delete session", err)
	}
	return nil
}

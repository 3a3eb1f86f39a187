package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/phrazzld/pulse-api/internal/store"
)

// InstrumentedStore wraps a store.RecordStore and records every call.
type InstrumentedStore struct {
	next     store.RecordStore
	recorder Recorder
	now      func() time.Time
}

var _ store.RecordStore = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps next. A nil recorder records nothing.
func NewInstrumentedStore(next store.RecordStore, recorder Recorder) *InstrumentedStore {
	if recorder == nil {
		recorder = Nop{}
	}
	return &InstrumentedStore{next: next, recorder: recorder, now: time.Now}
}

// Create implements store.RecordStore.
func (s *InstrumentedStore) Create(ctx context.Context, collection, key string, value any) error {
	start := s.now()
	err := s.next.Create(ctx, collection, key, value)
	s.observe(store.OpCreate, collection, start, err)
	return err
}

// Read implements store.RecordStore.
func (s *InstrumentedStore) Read(ctx context.Context, collection, key string, dst any) error {
	start := s.now()
	err := s.next.Read(ctx, collection, key, dst)
	s.observe(store.OpRead, collection, start, err)
	return err
}

// Update implements store.RecordStore.
func (s *InstrumentedStore) Update(ctx context.Context, collection, key string, value any) error {
	start := s.now()
	err := s.next.Update(ctx, collection, key, value)
	s.observe(store.OpUpdate, collection, start, err)
	return err
}

// Delete implements store.RecordStore.
func (s *InstrumentedStore) Delete(ctx context.Context, collection, key string) error {
	start := s.now()
	err := s.next.Delete(ctx, collection, key)
	s.observe(store.OpDelete, collection, start, err)
	return err
}

func (s *InstrumentedStore) observe(op, collection string, start time.Time, err error) {
	s.recorder.RecordStoreOperation(op, collection, Outcome(err), s.now().Sub(start))
}

// Outcome classifies a store error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, store.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, store.ErrStorageIO):
		return OutcomeError
	case errors.Is(err, store.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return OutcomeExists
	default:
		return OutcomeError
	}
}

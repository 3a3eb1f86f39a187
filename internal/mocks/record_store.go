package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/phrazzld/pulse-api/internal/store"
)

// MockRecordStore implements store.RecordStore for testing.
//
// Without function fields it behaves like an in-memory store that keeps
// values JSON-encoded, so callers observe the same copy semantics as a real
// backend. Setting a function field overrides that method entirely.
type MockRecordStore struct {
	// Function fields for customizable behavior
	CreateFn func(ctx context.Context, collection, key string, value any) error
	ReadFn   func(ctx context.Context, collection, key string, dst any) error
	UpdateFn func(ctx context.Context, collection, key string, value any) error
	DeleteFn func(ctx context.Context, collection, key string) error

	mu      sync.Mutex
	records map[string][]byte
	calls   map[string]int
}

var _ store.RecordStore = (*MockRecordStore)(nil)

// NewMockRecordStore creates an empty in-memory store.
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{
		records: make(map[string][]byte),
		calls:   make(map[string]int),
	}
}

// Create implements the RecordStore interface
func (m *MockRecordStore) Create(ctx context.Context, collection, key string, value any) error {
	m.count(store.OpCreate, collection)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, collection, key, value)
	}
	return m.BaseCreate(ctx, collection, key, value)
}

// Read implements the RecordStore interface
func (m *MockRecordStore) Read(ctx context.Context, collection, key string, dst any) error {
	m.count(store.OpRead, collection)
	if m.ReadFn != nil {
		return m.ReadFn(ctx, collection, key, dst)
	}
	return m.BaseRead(ctx, collection, key, dst)
}

// Update implements the RecordStore interface
func (m *MockRecordStore) Update(ctx context.Context, collection, key string, value any) error {
	m.count(store.OpUpdate, collection)
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, collection, key, value)
	}
	return m.BaseUpdate(ctx, collection, key, value)
}

// Delete implements the RecordStore interface
func (m *MockRecordStore) Delete(ctx context.Context, collection, key string) error {
	m.count(store.OpDelete, collection)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, collection, key)
	}
	return m.BaseDelete(ctx, collection, key)
}

// BaseCreate is the in-memory Create, for function fields that only
// intercept some calls.
func (m *MockRecordStore) BaseCreate(_ context.Context, collection, key string, value any) error {
	if err := store.ValidateKey(collection, key); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := store.RecordKey(collection, key)
	if _, ok := m.records[k]; ok {
		return store.ErrAlreadyExists
	}
	m.records[k] = data
	return nil
}

// BaseRead is the in-memory Read.
func (m *MockRecordStore) BaseRead(_ context.Context, collection, key string, dst any) error {
	if err := store.ValidateKey(collection, key); err != nil {
		return err
	}

	m.mu.Lock()
	data, ok := m.records[store.RecordKey(collection, key)]
	m.mu.Unlock()
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(data, dst)
}

// BaseUpdate is the in-memory Update.
func (m *MockRecordStore) BaseUpdate(_ context.Context, collection, key string, value any) error {
	if err := store.ValidateKey(collection, key); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := store.RecordKey(collection, key)
	if _, ok := m.records[k]; !ok {
		return store.ErrNotFound
	}
	m.records[k] = data
	return nil
}

// BaseDelete is the in-memory Delete.
func (m *MockRecordStore) BaseDelete(_ context.Context, collection, key string) error {
	if err := store.ValidateKey(collection, key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := store.RecordKey(collection, key)
	if _, ok := m.records[k]; !ok {
		return store.ErrNotFound
	}
	delete(m.records, k)
	return nil
}

// Has reports whether a record exists.
func (m *MockRecordStore) Has(collection, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[store.RecordKey(collection, key)]
	return ok
}

// Put stores raw bytes under a key, bypassing encoding.
func (m *MockRecordStore) Put(collection, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[store.RecordKey(collection, key)] = data
}

// Calls returns how many times op was invoked on collection.
func (m *MockRecordStore) Calls(op, collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op+" "+collection]
}

func (m *MockRecordStore) count(op, collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op+" "+collection]++
}

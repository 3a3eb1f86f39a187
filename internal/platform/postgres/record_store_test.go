package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/pulse-api/internal/platform/postgres"
	"github.com/phrazzld/pulse-api/internal/store"
	"github.com/phrazzld/pulse-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// unusedDB fails the test if any statement reaches it.
type unusedDB struct {
	t *testing.T
}

func (u unusedDB) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	u.t.Fatal("unexpected ExecContext")
	return nil, nil
}

func (u unusedDB) QueryRowContext(context.Context, string, ...any) *sql.Row {
	u.t.Fatal("unexpected QueryRowContext")
	return nil
}

func newTxStore(t *testing.T, tx *sql.Tx) *postgres.RecordStore {
	t.Helper()
	s, err := postgres.NewRecordStore(tx, time.Second, nil)
	require.NoError(t, err)
	return s
}

func TestRecordStoreLifecycle(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := newTxStore(t, tx)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, "Tests", "a1", record{Name: "first", Count: 1}))

		var got record
		require.NoError(t, s.Read(ctx, "Tests", "a1", &got))
		assert.Equal(t, record{Name: "first", Count: 1}, got)

		require.NoError(t, s.Update(ctx, "Tests", "a1", record{Name: "updated", Count: 2}))
		require.NoError(t, s.Read(ctx, "Tests", "a1", &got))
		assert.Equal(t, record{Name: "updated", Count: 2}, got)

		require.NoError(t, s.Delete(ctx, "Tests", "a1"))
		assert.True(t, errors.Is(s.Read(ctx, "Tests", "a1", &got), store.ErrNotFound))
		assert.True(t, errors.Is(s.Delete(ctx, "Tests", "a1"), store.ErrNotFound))
		assert.True(t, errors.Is(s.Update(ctx, "Tests", "a1", record{}), store.ErrNotFound))
	})
}

func TestRecordStoreDuplicateCreate(t *testing.T) {
	db := testdb.Open(t)

	// A failed statement aborts its transaction, so this test writes to the
	// shared database and removes its row afterwards.
	s, err := postgres.NewRecordStore(db, time.Second, nil)
	require.NoError(t, err)
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Delete(ctx, "Tests", "dup") })

	require.NoError(t, s.Create(ctx, "Tests", "dup", record{Name: "first"}))
	err = s.Create(ctx, "Tests", "dup", record{Name: "second"})
	assert.True(t, errors.Is(err, store.ErrAlreadyExists))

	var got record
	require.NoError(t, s.Read(ctx, "Tests", "dup", &got))
	assert.Equal(t, "first", got.Name)
}

func TestRecordStoreMismatchedValueReadsAsZero(t *testing.T) {
	db := testdb.Open(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		s := newTxStore(t, tx)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, "Tests", "a1", []string{"not", "a", "record"}))

		got := record{Name: "stale"}
		require.NoError(t, s.Read(ctx, "Tests", "a1", &got))
		assert.Equal(t, record{}, got)
	})
}

func TestRecordStoreRejectsInvalidKeys(t *testing.T) {
	s, err := postgres.NewRecordStore(unusedDB{t: t}, time.Second, nil)
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, errors.Is(s.Create(ctx, "Accounts", "../etc", record{}), store.ErrInvalidKey))
	assert.True(t, errors.Is(s.Read(ctx, "Accounts/x", "a1", &record{}), store.ErrInvalidKey))
	assert.True(t, errors.Is(s.Delete(ctx, "Accounts", ""), store.ErrInvalidKey))
}

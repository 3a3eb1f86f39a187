package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/pulse-api/internal/platform/logger"
	"github.com/phrazzld/pulse-api/internal/store"
)

// DefaultOpTimeout bounds a single statement when none is configured.
const DefaultOpTimeout = 5 * time.Second

// DBTX is the subset of *sql.DB and *sql.Tx used by RecordStore.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	insertRecordSQL = `INSERT INTO records (collection, key, value) VALUES ($1, $2, $3)`
	selectRecordSQL = `SELECT value FROM records WHERE collection = $1 AND key = $2`
	updateRecordSQL = `UPDATE records SET value = $3, updated_at = NOW() WHERE collection = $1 AND key = $2`
	deleteRecordSQL = `DELETE FROM records WHERE collection = $1 AND key = $2`
)

// RecordStore implements store.RecordStore over the records table.
type RecordStore struct {
	db      DBTX
	timeout time.Duration
	logger  *slog.Logger
}

// Ensure RecordStore implements store.RecordStore interface
var _ store.RecordStore = (*RecordStore)(nil)

// NewRecordStore creates a RecordStore. A non-positive timeout selects
// DefaultOpTimeout. If logger is nil, the default logger is used.
func NewRecordStore(db DBTX, timeout time.Duration, log *slog.Logger) (*RecordStore, error) {
	if db == nil {
		return nil, fmt.Errorf("postgres: db cannot be nil")
	}
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &RecordStore{
		db:      db,
		timeout: timeout,
		logger:  log.With(slog.String("component", "postgres_store")),
	}, nil
}

// Create implements store.RecordStore.Create.
// The primary key rejects a second insert for the same (collection, key).
func (s *RecordStore) Create(ctx context.Context, collection, key string, value any) error {
	return s.run(ctx, store.OpCreate, collection, key, func(ctx context.Context, log *slog.Logger) error {
		data, err := json.Marshal(value)
		if err != nil {
			return store.NewStoreError(collection, key, store.OpCreate, "encode record",
				fmt.Errorf("%w: %v", store.ErrStorageIO, err))
		}
		if _, err := s.db.ExecContext(ctx, insertRecordSQL, collection, key, data); err != nil {
			if IsUniqueViolation(err) {
				log.Debug("record already exists")
			}
			return s.mapError(ctx, collection, key, store.OpCreate, "insert record", err)
		}
		log.Debug("record created")
		return nil
	})
}

// Read implements store.RecordStore.Read.
// A stored value that does not decode into dst leaves dst zeroed.
func (s *RecordStore) Read(ctx context.Context, collection, key string, dst any) error {
	return s.run(ctx, store.OpRead, collection, key, func(ctx context.Context, log *slog.Logger) error {
		var data []byte
		if err := s.db.QueryRowContext(ctx, selectRecordSQL, collection, key).Scan(&data); err != nil {
			return s.mapError(ctx, collection, key, store.OpRead, "select record", err)
		}
		if len(data) == 0 {
			return store.NewStoreError(collection, key, store.OpRead, "empty record", store.ErrNotFound)
		}
		if err := store.DecodeRecord(data, dst); err != nil {
			log.Warn("record malformed, returning empty value", slog.String("error", err.Error()))
		}
		return nil
	})
}

// Update implements store.RecordStore.Update.
func (s *RecordStore) Update(ctx context.Context, collection, key string, value any) error {
	return s.run(ctx, store.OpUpdate, collection, key, func(ctx context.Context, log *slog.Logger) error {
		data, err := json.Marshal(value)
		if err != nil {
			return store.NewStoreError(collection, key, store.OpUpdate, "encode record",
				fmt.Errorf("%w: %v", store.ErrStorageIO, err))
		}
		result, err := s.db.ExecContext(ctx, updateRecordSQL, collection, key, data)
		if err != nil {
			return s.mapError(ctx, collection, key, store.OpUpdate, "update record", err)
		}
		if err := CheckRowsAffected(result); err != nil {
			return store.NewStoreError(collection, key, store.OpUpdate, "update record", err)
		}
		log.Debug("record updated")
		return nil
	})
}

// Delete implements store.RecordStore.Delete.
func (s *RecordStore) Delete(ctx context.Context, collection, key string) error {
	return s.run(ctx, store.OpDelete, collection, key, func(ctx context.Context, log *slog.Logger) error {
		result, err := s.db.ExecContext(ctx, deleteRecordSQL, collection, key)
		if err != nil {
			return s.mapError(ctx, collection, key, store.OpDelete, "delete record", err)
		}
		if err := CheckRowsAffected(result); err != nil {
			return store.NewStoreError(collection, key, store.OpDelete, "delete record", err)
		}
		log.Debug("record deleted")
		return nil
	})
}

// run validates the key and executes fn with the operation deadline applied.
func (s *RecordStore) run(
	ctx context.Context,
	op, collection, key string,
	fn func(ctx context.Context, log *slog.Logger) error,
) error {
	if err := store.ValidateKey(collection, key); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("operation", op),
		slog.String("collection", collection),
		slog.String("key", key),
	)
	return fn(ctx, log)
}

// mapError converts a driver error, preferring the context state so that a
// statement aborted by the deadline reports ErrTimeout.
func (s *RecordStore) mapError(ctx context.Context, collection, key, op, msg string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return store.NewStoreError(collection, key, op, "deadline exceeded", store.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return store.NewStoreError(collection, key, op, "operation cancelled",
			fmt.Errorf("%w: %v", store.ErrStorageIO, err))
	}
	return store.NewStoreError(collection, key, op, msg, MapError(err))
}

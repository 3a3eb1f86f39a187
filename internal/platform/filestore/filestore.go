package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/phrazzld/pulse-api/internal/platform/logger"
	"github.com/phrazzld/pulse-api/internal/store"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
	fileExt  = ".json"
)

// DefaultOpTimeout bounds a single operation when none is configured.
const DefaultOpTimeout = 5 * time.Second

// Store implements store.RecordStore using one JSON file per record.
type Store struct {
	root    string
	timeout time.Duration
	locks   *store.KeyedMutex
	logger  *slog.Logger
}

// Ensure Store implements store.RecordStore interface
var _ store.RecordStore = (*Store)(nil)

// New creates a Store rooted at dir, creating the directory if needed.
// A non-positive timeout selects DefaultOpTimeout. If logger is nil, the
// default logger is used.
func New(dir string, timeout time.Duration, log *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: root directory must not be empty")
	}
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("filestore: create root %s: %w", dir, err)
	}

	return &Store{
		root:    dir,
		timeout: timeout,
		locks:   store.NewKeyedMutex(),
		logger:  log.With(slog.String("component", "filestore")),
	}, nil
}

// Root returns the directory holding the collections.
func (s *Store) Root() string {
	return s.root
}

// Create implements store.RecordStore.Create.
// The record file is opened with O_EXCL, so an existing key is never
// overwritten. A failed write removes the partial file.
func (s *Store) Create(ctx context.Context, collection, key string, value any) error {
	return s.run(ctx, store.OpCreate, collection, key, func(log *slog.Logger) error {
		data, err := json.Marshal(value)
		if err != nil {
			return store.NewStoreError(collection, key, store.OpCreate, "encode record",
				fmt.Errorf("%w: %v", store.ErrStorageIO, err))
		}

		dir := s.collectionDir(collection)
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return ioError(collection, key, store.OpCreate, "create collection directory", err)
		}

		path := s.recordPath(collection, key)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				return store.NewStoreError(collection, key, store.OpCreate, "key taken", store.ErrAlreadyExists)
			}
			return ioError(collection, key, store.OpCreate, "open record", err)
		}

		if err := writeAndClose(f, data); err != nil {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				log.Error("failed to remove partial record", slog.String("error", rmErr.Error()))
			}
			return ioError(collection, key, store.OpCreate, "write record", err)
		}

		log.Debug("record created", slog.Int("bytes", len(data)))
		return nil
	})
}

// Read implements store.RecordStore.Read.
// Absent and empty records are ErrNotFound; a record that cannot be read
// matches both ErrNotFound and ErrStorageIO. A record that is not valid JSON
// for dst leaves dst zeroed and returns nil.
func (s *Store) Read(ctx context.Context, collection, key string, dst any) error {
	return s.run(ctx, store.OpRead, collection, key, func(log *slog.Logger) error {
		data, err := os.ReadFile(s.recordPath(collection, key))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return store.NewStoreError(collection, key, store.OpRead, "no such record", store.ErrNotFound)
			}
			log.Warn("record unreadable", slog.String("error", err.Error()))
			return store.NewStoreError(collection, key, store.OpRead, "read record",
				fmt.Errorf("%w: %w: %v", store.ErrNotFound, store.ErrStorageIO, err))
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return store.NewStoreError(collection, key, store.OpRead, "empty record", store.ErrNotFound)
		}

		if err := store.DecodeRecord(data, dst); err != nil {
			log.Warn("record malformed, returning empty value", slog.String("error", err.Error()))
		}
		return nil
	})
}

// Update implements store.RecordStore.Update.
// The new value is written to a temporary file in the collection directory
// and renamed over the record.
func (s *Store) Update(ctx context.Context, collection, key string, value any) error {
	return s.run(ctx, store.OpUpdate, collection, key, func(log *slog.Logger) error {
		path := s.recordPath(collection, key)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return store.NewStoreError(collection, key, store.OpUpdate, "no such record", store.ErrNotFound)
			}
			return ioError(collection, key, store.OpUpdate, "stat record", err)
		}

		data, err := json.Marshal(value)
		if err != nil {
			return store.NewStoreError(collection, key, store.OpUpdate, "encode record",
				fmt.Errorf("%w: %v", store.ErrStorageIO, err))
		}

		tmp, err := os.CreateTemp(s.collectionDir(collection), key+".*.tmp")
		if err != nil {
			return ioError(collection, key, store.OpUpdate, "create temp file", err)
		}
		tmpPath := tmp.Name()

		if err := writeAndClose(tmp, data); err != nil {
			_ = os.Remove(tmpPath)
			return ioError(collection, key, store.OpUpdate, "write temp file", err)
		}
		if err := os.Rename(tmpPath, path); err != nil {
			_ = os.Remove(tmpPath)
			return ioError(collection, key, store.OpUpdate, "replace record", err)
		}

		log.Debug("record updated", slog.Int("bytes", len(data)))
		return nil
	})
}

// Delete implements store.RecordStore.Delete.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	return s.run(ctx, store.OpDelete, collection, key, func(log *slog.Logger) error {
		if err := os.Remove(s.recordPath(collection, key)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return store.NewStoreError(collection, key, store.OpDelete, "no such record", store.ErrNotFound)
			}
			return ioError(collection, key, store.OpDelete, "remove record", err)
		}
		log.Debug("record deleted")
		return nil
	})
}

// run validates the key, then executes fn under the record lock bounded by
// the operation timeout. When the deadline passes first, run returns
// ErrTimeout; fn still finishes in the background and releases the lock.
func (s *Store) run(
	ctx context.Context,
	op, collection, key string,
	fn func(log *slog.Logger) error,
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

	done := make(chan error, 1)
	go func() {
		unlock := s.locks.Lock(store.RecordKey(collection, key))
		defer unlock()

		if ctx.Err() != nil {
			done <- ctx.Err()
			return
		}
		done <- fn(log)
	}()

	select {
	case err := <-done:
		if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			return contextError(collection, key, op, err)
		}
		return err
	case <-ctx.Done():
		log.Warn("store operation did not complete before deadline",
			slog.Duration("timeout", s.timeout))
		return contextError(collection, key, op, ctx.Err())
	}
}

func (s *Store) collectionDir(collection string) string {
	return filepath.Join(s.root, collection)
}

func (s *Store) recordPath(collection, key string) string {
	return filepath.Join(s.root, collection, key+fileExt)
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func ioError(collection, key, op, msg string, err error) error {
	return store.NewStoreError(collection, key, op, msg, fmt.Errorf("%w: %v", store.ErrStorageIO, err))
}

func contextError(collection, key, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return store.NewStoreError(collection, key, op, "deadline exceeded", store.ErrTimeout)
	}
	return store.NewStoreError(collection, key, op, "canceled", err)
}

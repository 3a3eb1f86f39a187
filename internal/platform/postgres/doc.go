// Package postgres provides a PostgreSQL implementation of store.RecordStore.
// Records live in a single table keyed by (collection, key) with the value
// held as JSONB, so the collection-level stores in internal/store work over
// it unchanged. The package also owns the embedded schema migrations.
package postgres

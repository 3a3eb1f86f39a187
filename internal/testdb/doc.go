// Package testdb provides helpers for tests that need a PostgreSQL database.
//
// Tests call Open to obtain a migrated connection; it skips the test when no
// database URL is configured. WithTx runs a test body inside a transaction
// that is always rolled back, so tests can share one database without
// cleaning up after themselves.
package testdb

package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pulse-api/internal/store"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
	uniqueViolationCode = "23505"

	// queryCanceledCode is raised when statement_timeout or a cancel request fires
	queryCanceledCode = "57014"
)

// MapError maps a database error to the store sentinel errors.
// sql.ErrNoRows becomes ErrNotFound, a unique violation becomes
// ErrAlreadyExists, a cancelled statement becomes ErrTimeout and anything
// else is wrapped as ErrStorageIO.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
		case queryCanceledCode:
			return fmt.Errorf("%w: %v", store.ErrTimeout, err)
		}
	}

	return fmt.Errorf("%w: %v", store.ErrStorageIO, err)
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected examines the number of rows affected by a database operation.
// If no rows were affected, it returns store.ErrNotFound.
func CheckRowsAffected(result sql.Result) error {
	if result == nil {
		return fmt.Errorf("%w: nil result", store.ErrStorageIO)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", store.ErrStorageIO, err)
	}

	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	return nil
}

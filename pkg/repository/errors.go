package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL integrity constraint violation codes.
const (
	pgForeignKeyCode   = "23503"
	pgDuplicateKeyCode = "23505"
	pgCheckCode        = "23514"
)

var (
	// ErrReference reports a write naming a row that does not exist.
	ErrReference = errors.New("referenced record does not exist")

	// ErrConstraint reports a value rejected by a CHECK constraint.
	ErrConstraint = errors.New("value violates a table constraint")
)

// MapError translates database errors to domain errors:
//   - sql.ErrNoRows becomes notFoundErr
//   - a unique violation (23505) becomes duplicateErr
//   - a foreign key violation (23503) wraps ErrReference
//   - a check violation (23514) wraps ErrConstraint
//
// Other errors are returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgDuplicateKeyCode:
		return duplicateErr
	case pgForeignKeyCode:
		return constraintError(ErrReference, pgErr)
	case pgCheckCode:
		return constraintError(ErrConstraint, pgErr)
	}

	return err
}

func constraintError(sentinel error, pgErr *pgconn.PgError) error {
	if pgErr.ConstraintName == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, pgErr.ConstraintName)
}

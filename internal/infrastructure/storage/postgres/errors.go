package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"opserp/internal/core/apperror"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgLockNotAvailable    = "55P03"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
)

// MapError converts constraint and locking failures into application errors.
// Other errors are returned unchanged.
func MapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewDuplicate(pgErr.TableName, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict("record is referenced by other records").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewInvalidRequest("value violates a storage constraint").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgLockNotAvailable, pgSerializationFail, pgDeadlockDetected:
		return apperror.NewConcurrentModification(pgErr.TableName, nil).WithCause(err)
	}
	return err
}

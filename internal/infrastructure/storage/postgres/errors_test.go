package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"opserp/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	wrap := func(code string) error {
		return fmt.Errorf("insert: %w", &pgconn.PgError{Code: code, TableName: "roles", ConstraintName: "roles_name_key"})
	}

	assert.True(t, apperror.HasCode(MapError(wrap("23505")), apperror.CodeDuplicate))
	assert.True(t, apperror.HasCode(MapError(wrap("23503")), apperror.CodeConflict))
	assert.True(t, apperror.IsInvalidRequest(MapError(wrap("23514"))))
	assert.True(t, apperror.IsConcurrentModification(MapError(wrap("55P03"))))
	assert.True(t, apperror.IsConcurrentModification(MapError(wrap("40P01"))))

	plain := errors.New("connection reset")
	assert.Same(t, plain, MapError(plain))

	other := wrap("42P01")
	assert.Equal(t, other, MapError(other))
}

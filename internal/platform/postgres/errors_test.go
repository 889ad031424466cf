package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taskmarket/taskmarket-api/internal/store"
)

func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "nil", err: nil, want: nil},
		{name: "no_rows", err: sql.ErrNoRows, want: store.ErrNotFound},
		{
			name: "unique_violation",
			err:  pgError(uniqueViolationCode, "users_username_key"),
			want: store.ErrDuplicate,
		},
		{
			name: "foreign_key_violation",
			err:  pgError(foreignKeyViolationCode, "tasks_creator_fkey"),
			want: store.ErrInvalidEntity,
		},
		{
			name: "check_violation",
			err:  pgError(checkViolationCode, "tasks_cost_check"),
			want: store.ErrInvalidEntity,
		},
		{
			name: "not_null_violation",
			err:  pgError(notNullViolationCode, ""),
			want: store.ErrInvalidEntity,
		},
		{
			name: "wrapped_no_rows",
			err:  fmt.Errorf("scan: %w", sql.ErrNoRows),
			want: store.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	// Unmapped errors pass through unchanged.
	plain := errors.New("connection reset")
	assert.Equal(t, plain, MapError(plain))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(pgError(uniqueViolationCode, "users_username_key")))
	assert.True(
		t,
		IsUniqueViolation(fmt.Errorf("insert: %w", pgError(uniqueViolationCode, ""))),
	)
	assert.False(t, IsUniqueViolation(pgError(foreignKeyViolationCode, "")))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsForeignKeyViolation(pgError(foreignKeyViolationCode, "tasks_creator_fkey")))
	assert.False(t, IsForeignKeyViolation(pgError(uniqueViolationCode, "")))
	assert.False(t, IsForeignKeyViolation(nil))
}

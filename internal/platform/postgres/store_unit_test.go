package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskmarket/taskmarket-api/internal/store"
)

// mockDBTX is a no-op store.DBTX for constructor tests. The SQL behavior
// itself is covered by the memstore-backed service tests and by integration
// environments with a real database.
type mockDBTX struct{}

func (m *mockDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, sql.ErrConnDone
}

func (m *mockDBTX) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return nil, sql.ErrConnDone
}

func (m *mockDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, sql.ErrConnDone
}

func (m *mockDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func TestNewPostgresTaskStore(t *testing.T) {
	t.Parallel()

	s := NewPostgresTaskStore(&mockDBTX{}, nil)
	assert.NotNil(t, s)
	assert.NotNil(t, s.logger)

	assert.Panics(t, func() {
		NewPostgresTaskStore(nil, nil)
	}, "nil db must be rejected")
}

func TestNewPostgresUserStore(t *testing.T) {
	t.Parallel()

	s := NewPostgresUserStore(&mockDBTX{}, nil)
	assert.NotNil(t, s)
	assert.NotNil(t, s.logger)

	assert.Panics(t, func() {
		NewPostgresUserStore(nil, nil)
	}, "nil db must be rejected")
}

func TestTaskStoreWithTxRebinds(t *testing.T) {
	t.Parallel()

	original := NewPostgresTaskStore(&mockDBTX{}, nil)
	tx := &sql.Tx{}

	bound := original.WithTx(tx)
	boundStore, ok := bound.(*PostgresTaskStore)
	assert.True(t, ok)
	assert.Equal(t, store.DBTX(tx), boundStore.db)

	// The original store keeps its own connection.
	assert.NotEqual(t, boundStore.db, original.db)
}

func TestUserStoreWithTxRebinds(t *testing.T) {
	t.Parallel()

	original := NewPostgresUserStore(&mockDBTX{}, nil)
	tx := &sql.Tx{}

	bound := original.WithTx(tx)
	boundStore, ok := bound.(*PostgresUserStore)
	assert.True(t, ok)
	assert.Equal(t, store.DBTX(tx), boundStore.db)
}

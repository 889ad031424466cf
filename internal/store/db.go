package store

import (
	"context"
	"database/sql"
)

// DBTX abstracts the database handle the task and user stores execute
// against. Both *sql.DB and *sql.Tx satisfy it, which lets a store built
// on the pool be rebound to a transaction via WithTx for atomic task
// lifecycle transitions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

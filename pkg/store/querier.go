package store

import (
	"context"
	"database/sql"
)

// Querier is the minimal interface needed for publishing and reading
// resolution runs. Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

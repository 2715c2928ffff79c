package postgres

import (
	"context"
	"database/sql"

	"personal-calendar/internal/repository"
)

// DBTX is the subset of database/sql used by the repositories.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ repository.UserRepository  = (*UserRepository)(nil)
	_ repository.EventRepository = (*EventRepository)(nil)
)

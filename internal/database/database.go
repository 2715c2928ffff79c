// Package database owns the process-wide connection pool: it opens the
// configured driver, waits for the server to accept queries, applies the
// embedded schema migrations and closes the pool on shutdown.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"personal-calendar/internal/repository/postgres"
	"personal-calendar/internal/repository/sqlite"
)

// Driver names a supported relational engine.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Config selects and tunes the database connection.
type Config struct {
	Driver          Driver
	DSN             string
	Path            string
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// DB is an open pool tagged with the engine it talks to.
type DB struct {
	*sql.DB
	Driver Driver
}

// Execer is the subset of *sql.DB needed to probe reachability.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens the pool for cfg.Driver. It does not verify reachability.
func Open(cfg Config) (*DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = postgres.Open(cfg.DSN)
	case DriverSQLite:
		db, err = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return &DB{DB: db, Driver: cfg.Driver}, nil
}

// Ping runs a trivial query against the pool.
func Ping(ctx context.Context, db Execer) error {
	if _, err := db.ExecContext(ctx, `SELECT 1`); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// WaitReady probes db up to attempts times, sleeping delay between tries.
// It returns the last probe error once the attempts are exhausted.
func WaitReady(ctx context.Context, db Execer, attempts int, delay time.Duration, logger logrus.FieldLogger) error {
	if attempts < 1 {
		attempts = 1
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := Ping(ctx, db); err != nil {
			logger.Warnf("waiting for database (%d/%d): %v", attempt, attempts, err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("database connection failed after %d attempts: %w", attempt, err)
	}

	logger.Info("database connection ready")
	return nil
}

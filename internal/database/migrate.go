package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies every pending migration for driver.
func Migrate(ctx context.Context, db *sql.DB, driver Driver, logger logrus.FieldLogger) error {
	var dialect goose.Dialect
	switch driver {
	case DriverPostgres:
		dialect = goose.DialectPostgres
	case DriverSQLite:
		dialect = goose.DialectSQLite3
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	fsys, err := fs.Sub(migrations, "migrations/"+string(driver))
	if err != nil {
		return fmt.Errorf("migrations for %s: %w", driver, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Infof("applied migration %s in %s", r.Source.Path, r.Duration)
	}
	return nil
}

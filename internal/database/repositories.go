package database

import (
	"personal-calendar/internal/repository"
	"personal-calendar/internal/repository/postgres"
	"personal-calendar/internal/repository/sqlite"
)

// Repositories bundles the stores backed by one pool.
type Repositories struct {
	Users  repository.UserRepository
	Events repository.EventRepository
}

// Repositories returns the driver-specific stores for db.
func (db *DB) Repositories() Repositories {
	if db.Driver == DriverSQLite {
		return Repositories{
			Users:  sqlite.NewUserRepository(db.DB),
			Events: sqlite.NewEventRepository(db.DB),
		}
	}
	return Repositories{
		Users:  postgres.NewUserRepository(db.DB),
		Events: postgres.NewEventRepository(db.DB),
	}
}

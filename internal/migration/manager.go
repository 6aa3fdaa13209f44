// Package migration wires golang-migrate against the embedded SQL files
// in sql/ (C8: embedded migrations run idempotently at startup).
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Manager runs the embedded schema migrations against a single Postgres
// database, mirroring the teacher's migration CLI shape but simplified to
// one database (this service has no secondary analytics store).
type Manager struct {
	logger *logrus.Logger
	runner *migrate.Migrate
}

// NewManager opens a migration runner bound to sqlDB. sqlDB is a
// *database/sql.DB borrowed from the store's pool for the duration of
// migration only.
func NewManager(sqlDB *sql.DB) (*Manager, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return nil, fmt.Errorf("migration: init postgres driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, fmt.Errorf("migration: init source: %w", err)
	}

	runner, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration: init runner: %w", err)
	}

	return &Manager{logger: logger, runner: runner}, nil
}

// Up runs every pending migration. It is idempotent: if the schema is
// already current, it returns nil rather than an error.
func (m *Manager) Up() error {
	err := m.runner.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration: up: %w", err)
	}
	m.logger.Info("migration: schema up to date")
	return nil
}

// Close releases the underlying driver's resources without closing sqlDB
// itself (ownership stays with the caller's pool).
func (m *Manager) Close() error {
	srcErr, dbErr := m.runner.Close()
	if dbErr != nil {
		return dbErr
	}
	return srcErr
}

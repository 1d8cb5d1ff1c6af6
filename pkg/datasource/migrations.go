package datasource

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// ApplyMigrations runs the embedded schema migrations for the transparency
// log's postgres-backed table against db, using an embed-and-apply-on-connect
// pattern. Safe to call on every startup: golang-migrate no-ops when there
// is nothing pending.
func ApplyMigrations(db *sql.DB, databaseName string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("datasource: failed to create postgres migration driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("datasource: failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, databaseName, driver)
	if err != nil {
		return fmt.Errorf("datasource: failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("datasource: failed to apply migrations: %w", err)
	}

	// Must close only the source driver, not m itself: m.Close() would also
	// close the database driver, which closes the shared *sql.DB.
	return sourceDriver.Close()
}

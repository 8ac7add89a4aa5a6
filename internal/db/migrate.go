package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/inkpost/blogapi/config"
)

// DefaultMigrationsURL is relative to the repository root.
const DefaultMigrationsURL = "file://internal/db/migrations"

// MigrateUp applies every pending migration. An up-to-date schema is not an
// error.
func MigrateUp(sourceURL string, cfg config.DatabaseConfig) error {
	return runMigrations(sourceURL, cfg, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back steps migrations, or all of them when steps <= 0.
func MigrateDown(sourceURL string, cfg config.DatabaseConfig, steps int) error {
	return runMigrations(sourceURL, cfg, func(m *migrate.Migrate) error {
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	})
}

func runMigrations(sourceURL string, cfg config.DatabaseConfig, apply func(*migrate.Migrate) error) error {
	migrator, err := migrate.New(sourceURL, DSN(cfg))
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := apply(migrator); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

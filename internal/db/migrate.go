package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/userdir/apiserver/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateUp applies all pending up migrations.
func MigrateUp(cfg config.Config) error {
	return runMigrator(cfg, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown reverts all applied migrations.
func MigrateDown(cfg config.Config) error {
	return runMigrator(cfg, func(m *migrate.Migrate) error { return m.Down() })
}

func runMigrator(cfg config.Config, step func(*migrate.Migrate) error) error {
	dsn, err := cfg.Database.DSN()
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("init migrator failed: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := step(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migrate failed: %w", err)
	}
	return nil
}

package internal

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukerupert/cartsync/migrations"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies pending catalog and ledger migrations and logs the resulting version.
func RunMigrations(db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations.MigrationsFS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("database migrations applied", "version", version)

	return nil
}

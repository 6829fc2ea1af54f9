package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// The embedded migrations own the leads table: lead contact data, the priced
// estimate and the sales status the admins move through.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// migrate points goose at the embedded leads schema and runs one command.
func migrate(ctx context.Context, db *sql.DB, operation, action string, run func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: failed to set dialect: %w", operation, err)
	}
	if err := run(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s: failed to %s: %w", operation, action, err)
	}
	return nil
}

// RunMigrations brings the leads schema to the latest version.
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	logger.Info("Applying leads schema migrations")
	if err := migrate(ctx, db, "storage.RunMigrations", "apply migrations", goose.UpContext); err != nil {
		return err
	}
	logger.Info("Leads schema is up to date")
	return nil
}

// RollbackMigration reverts the most recent leads schema migration.
func RollbackMigration(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	logger.Info("Rolling back last leads schema migration")
	if err := migrate(ctx, db, "storage.RollbackMigration", "roll back migration", goose.DownContext); err != nil {
		return err
	}
	logger.Info("Leads schema rollback completed")
	return nil
}

// Status prints the applied and pending leads schema migrations.
func Status(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	logger.Info("Checking leads schema migration status")
	return migrate(ctx, db, "storage.Status", "read migration status", goose.StatusContext)
}

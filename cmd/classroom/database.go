package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/classroom/internal/config"
	"github.com/phrazzld/classroom/internal/platform/postgres"
	"github.com/phrazzld/classroom/internal/redact"
)

// setupAppDatabase connects to postgres and, when configured, brings the
// schema up to date.
func setupAppDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	log := logger.With(slog.String("database_url", redact.DatabaseURL(cfg.URL)))

	db, err := postgres.Open(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %s", redact.Error(err))
	}
	log.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	version, err := postgres.SchemaVersion(ctx, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Info("database schema ready", slog.Int64("version", version))
	return db, nil
}

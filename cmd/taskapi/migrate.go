package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
)

// runMigrate applies a goose migration command to the configured PostgreSQL
// database. The sqlite driver creates its schema on open and the memory
// driver has none, so both are rejected.
func runMigrate(ctx context.Context, cfg *config.Config, command string) error {
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations are only supported for the %s driver, got %q",
			config.DriverPostgres, cfg.Database.Driver)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	log.Info("running migrations",
		"command", command,
		"url", postgres.MaskURL(cfg.Database.URL))
	return postgres.Migrate(ctx, db, command, log)
}

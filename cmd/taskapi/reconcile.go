package main

import (
	"context"
	"fmt"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

// runReconcile performs a single reconcile sweep and prints its report.
func runReconcile(ctx context.Context, cfg *config.Config) error {
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	app, err := newApplication(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer func() { _ = app.cleanup() }()

	report, err := app.reconciler.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	fmt.Printf("tasks unassigned: %d\ntasks renamed: %d\nusers rewritten: %d\n",
		report.TasksUnassigned, report.TasksRenamed, report.UsersRewritten)
	return nil
}

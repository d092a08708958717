package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/platform/metrics"
	"github.com/phrazzld/taskboard-api/internal/scheduler"
)

// runServer wires the application for cfg and serves HTTP until ctx is
// cancelled, then shuts down gracefully.
func runServer(ctx context.Context, cfg *config.Config) error {
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"driver", cfg.Database.Driver,
		"reconcile_schedule", cfg.Reconcile.Schedule)

	app, err := newApplication(ctx, cfg, log, metrics.NewWithDefaultCollectors())
	if err != nil {
		return err
	}
	defer func() { _ = app.cleanup() }()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return app.serve(ctx, ln)
}

// serve runs the HTTP server and, when configured, the reconcile schedule on
// ln until ctx is cancelled or the server fails.
func (app *application) serve(ctx context.Context, ln net.Listener) error {
	sched, err := app.startScheduler()
	if err != nil {
		_ = ln.Close()
		return err
	}

	server := &http.Server{
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server...")
	case err := <-serverErr:
		if err != nil {
			app.logger.Error("server failed", "error", err)
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			app.logger.Error("scheduler shutdown failed", "error", err)
			runErr = errors.Join(runErr, fmt.Errorf("scheduler shutdown failed: %w", err))
		}
	}

	app.logger.Info("server shutdown completed")
	return runErr
}

// startScheduler starts the periodic reconcile sweep. It returns nil when no
// schedule is configured.
func (app *application) startScheduler() (*scheduler.Scheduler, error) {
	spec := app.config.Reconcile.Schedule
	if spec == "" {
		return nil, nil
	}

	sched := scheduler.New(app.logger)
	err := sched.Add("reconcile", spec, func(ctx context.Context) error {
		_, err := app.reconciler.Run(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	sched.Start()
	app.logger.Info("reconcile sweep scheduled", slog.String("schedule", spec))
	return sched, nil
}

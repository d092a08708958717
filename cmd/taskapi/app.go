package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/metrics"
	"github.com/phrazzld/taskboard-api/internal/platform/postgres"
	"github.com/phrazzld/taskboard-api/internal/platform/sqlite"
	"github.com/phrazzld/taskboard-api/internal/query"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/store/memory"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	// Stores (using interfaces for proper abstraction)
	userStore store.UserStore
	taskStore store.TaskStore

	// Service interfaces
	taskService service.TaskService
	userService service.UserService
	reconciler  *service.Reconciler

	closers []func() error
}

// newApplication opens the configured backend and builds the services on top
// of it. The caller must call cleanup when done.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: m,
	}

	if err := app.openStores(ctx); err != nil {
		return nil, err
	}

	app.taskService = service.NewTaskService(app.taskStore, app.userStore, logger)
	app.userService = service.NewUserService(app.userStore, app.taskStore, logger)

	var observer service.ReconcileObserver
	if m != nil {
		observer = m
	}
	app.reconciler = service.NewReconciler(app.userStore, app.taskStore, observer, logger)

	return app, nil
}

func (app *application) openStores(ctx context.Context) error {
	db := app.config.Database
	log := app.logger.With(slog.String("driver", db.Driver))

	switch db.Driver {
	case config.DriverPostgres:
		sqlDB, err := postgres.Open(ctx, db.URL, db.MaxOpenConns)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.closers = append(app.closers, sqlDB.Close)
		app.userStore = postgres.NewPostgresUserStore(sqlDB, app.logger)
		app.taskStore = postgres.NewPostgresTaskStore(sqlDB, app.logger)
		log.Info("database connection established", slog.String("url", postgres.MaskURL(db.URL)))

	case config.DriverSQLite:
		gdb, err := sqlite.Open(ctx, db.URL, app.logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		app.closers = append(app.closers, func() error { return sqlite.Close(gdb) })
		app.userStore = sqlite.NewUserStore(gdb, app.logger)
		app.taskStore = sqlite.NewTaskStore(gdb, app.logger)
		log.Info("database opened", slog.String("path", db.URL))

	case config.DriverMemory:
		app.userStore = memory.NewUserStore()
		app.taskStore = memory.NewTaskStore()
		log.Warn("using in-memory store, data will not survive a restart")

	default:
		return fmt.Errorf("unsupported database driver %q", db.Driver)
	}
	return nil
}

// router builds the HTTP handler for the application.
func (app *application) router() http.Handler {
	var defaultLimit *int
	if n := app.config.API.DefaultTaskLimit; n > 0 {
		defaultLimit = query.Limit(n)
	}
	strict := app.config.API.StrictDecoding

	return api.NewRouter(api.RouterConfig{
		Tasks:   api.NewTaskHandler(app.taskService, defaultLimit, strict, app.logger),
		Users:   api.NewUserHandler(app.userService, strict, app.logger),
		Metrics: app.metrics,
		Logger:  app.logger,
	})
}

// cleanup releases every resource opened by newApplication.
func (app *application) cleanup() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	if err := errors.Join(errs...); err != nil {
		app.logger.Error("failed to release resources", "error", err)
		return err
	}
	return nil
}

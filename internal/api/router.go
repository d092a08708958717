package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/platform/metrics"
)

// RouterConfig holds the dependencies of the HTTP router.
type RouterConfig struct {
	Tasks   *TaskHandler
	Users   *UserHandler
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
// The /metrics endpoint is only mounted when cfg.Metrics is set.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Trace(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", cfg.Tasks.ListTasks)
		r.Post("/", cfg.Tasks.CreateTask)
		r.Get("/{id}", cfg.Tasks.GetTask)
		r.Put("/{id}", cfg.Tasks.ReplaceTask)
		r.Delete("/{id}", cfg.Tasks.DeleteTask)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", cfg.Users.ListUsers)
		r.Post("/", cfg.Users.CreateUser)
		r.Get("/{id}", cfg.Users.GetUser)
		r.Put("/{id}", cfg.Users.ReplaceUser)
		r.Delete("/{id}", cfg.Users.DeleteUser)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			cfg.Logger.Error("failed to write health check response", "error", err)
		}
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	return r
}

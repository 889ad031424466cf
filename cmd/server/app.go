package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/taskmarket/taskmarket-api/internal/api"
	apimiddleware "github.com/taskmarket/taskmarket-api/internal/api/middleware"
	"github.com/taskmarket/taskmarket-api/internal/config"
	"github.com/taskmarket/taskmarket-api/internal/platform/postgres"
	"github.com/taskmarket/taskmarket-api/internal/service/auth"
	"github.com/taskmarket/taskmarket-api/internal/service/tasks"
	"github.com/taskmarket/taskmarket-api/internal/store"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore   store.UserStore
	taskStore   store.TaskStore
	jwtService  auth.JWTService
	taskService tasks.TaskService
}

// newApplication builds the stores and services on top of the database
// connection.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	userStore := postgres.NewPostgresUserStore(db, logger)
	taskStore := postgres.NewPostgresTaskStore(db, logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	taskService := tasks.NewTaskService(taskStore, userStore, db, logger)

	return &application{
		config:      cfg,
		logger:      logger,
		db:          db,
		userStore:   userStore,
		taskStore:   taskStore,
		jwtService:  jwtService,
		taskService: taskService,
	}, nil
}

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(
		app.userStore,
		app.jwtService,
		auth.NewBcryptVerifier(),
		&app.config.Auth,
		app.logger,
	)
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/tasks", taskHandler.ListAll)

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/tasks", taskHandler.CreateTask)
			r.Patch("/tasks/{id}/executor", taskHandler.BecomeExecutor)
			r.Patch("/tasks/{id}/done", taskHandler.MarkDone)

			r.Get("/tasks/created", taskHandler.ListCreated)
			r.Get("/tasks/assigned", taskHandler.ListAssigned)
			r.Get("/tasks/unassigned", taskHandler.ListUnassigned)

			r.Get("/users/me/stats", taskHandler.GetStats)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

// cleanup releases the application's resources during shutdown.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}

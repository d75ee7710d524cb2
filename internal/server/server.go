package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goaltrackr/apiserver/config"
	"github.com/goaltrackr/apiserver/internal/auth"
	"github.com/goaltrackr/apiserver/internal/db"
	"github.com/goaltrackr/apiserver/internal/handlers"
	"github.com/goaltrackr/apiserver/internal/mq"
	"github.com/goaltrackr/apiserver/internal/services"
	"github.com/goaltrackr/apiserver/internal/storage"
	"github.com/goaltrackr/apiserver/internal/store"
)

const requestTimeout = 60 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *db.Handle
	mq         *mq.MQ
	storage    *storage.Storage
}

// Dependencies are the services the router exposes. Exports may be nil, in
// which case the export routes are not mounted.
type Dependencies struct {
	DB       handlers.Pinger
	Sessions *auth.Manager
	Users    *services.UserService
	Goals    *services.GoalService
	Progress *services.ProgressService
	Exports  *services.ExportService
}

// New wires configuration into repositories, services and routes. The
// database is connected lazily on the first request that needs it.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if cfg.UsesDefaultSecret() {
		slog.Warn("JWT_SECRET is not set; using the development signing key")
	}

	dbHandle := db.NewHandle(cfg.Database.URL)

	broker, err := mq.FromConfig(ctx, cfg.MQ)
	if err != nil {
		return nil, fmt.Errorf("connect mq: %w", err)
	}
	var events *services.Events
	if broker != nil {
		events = services.NewEvents(broker, cfg.MQ.Channel)
		slog.Info("publishing events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.Channel)
	}

	objects, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		if broker != nil {
			_ = broker.Close()
		}
		return nil, fmt.Errorf("connect storage: %w", err)
	}

	userRepo := store.NewUserRepository(dbHandle)
	goalRepo := store.NewGoalRepository(dbHandle)
	progressRepo := store.NewProgressRepository(dbHandle)

	deps := Dependencies{
		DB:       dbHandle,
		Sessions: auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.IsProduction()),
		Users:    services.NewUserService(userRepo),
		Goals:    services.NewGoalService(goalRepo, events),
		Progress: services.NewProgressService(progressRepo, events),
	}
	if objects != nil {
		deps.Exports = services.NewExportService(goalRepo, progressRepo, objects)
		slog.Info("exports enabled", "backend", cfg.Storage.Backend, "bucket", objects.Bucket())
	}

	router := NewRouter(deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbHandle,
		mq:         broker,
		storage:    objects,
	}, nil
}

// NewRouter builds the route tree with the shared middleware stack.
func NewRouter(deps Dependencies) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		handlers.RequestLogger,
		middleware.Timeout(requestTimeout),
	)
	// Set before mounting so subrouters inherit them.
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	authMiddleware := handlers.RequireAuth(deps.Sessions)

	router.Get("/healthz", handlers.Healthz(deps.DB))
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, deps.Users, deps.Sessions)
	})
	router.Route("/goals", func(r chi.Router) {
		handlers.GoalRouter(r, deps.Goals, authMiddleware)
	})
	router.Route("/progress", func(r chi.Router) {
		handlers.ProgressRouter(r, deps.Progress, authMiddleware)
	})
	if deps.Exports != nil {
		router.Route("/exports", func(r chi.Router) {
			handlers.ExportRouter(r, deps.Exports, authMiddleware)
		})
	}

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then closes the backing clients.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if closeErr := s.mq.Close(); closeErr != nil {
			slog.Warn("failed to close mq", "error", closeErr)
		}
	}
	if s.storage != nil {
		if closeErr := s.storage.Close(); closeErr != nil {
			slog.Warn("failed to close storage", "error", closeErr)
		}
	}
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			slog.Warn("failed to close database", "error", closeErr)
		}
	}
	return err
}

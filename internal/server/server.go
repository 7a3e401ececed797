// Package server is the composition root. New opens the store and wires
// repositories, services, loaders, handlers and the GraphQL schema into one
// chi router; Start serves it until SIGINT or SIGTERM.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/dataloader"
	"github.com/sakif/blog-api/internal/graph"
	"github.com/sakif/blog-api/internal/handler"
	"github.com/sakif/blog-api/internal/loader"
	"github.com/sakif/blog-api/internal/metrics"
	"github.com/sakif/blog-api/internal/middleware"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/security"
	"github.com/sakif/blog-api/internal/service"
)

const healthTimeout = 2 * time.Second

// Server owns the store and the rate limiter's eviction loop; both are
// released by Close.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   zerolog.Logger
	store    *sqlstore.Store
	limiter  *middleware.RateLimiter
	registry *prometheus.Registry
}

// New opens the database, applies migrations and builds the router.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	store, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		store:    store,
		registry: prometheus.NewRegistry(),
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes mounts:
//
//	GET  /health       store ping
//	GET  /metrics      Prometheus scrape
//	     /rest/...     REST API, writes behind RequireAuth
//	POST /graphql      GraphQL API with per-request loaders
//	GET  /playground   GraphiQL, when enabled
func (s *Server) setupRoutes() error {
	collector := metrics.NewCollector(s.registry)
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)
	sanitizer := security.NewSanitizer()

	authorService := service.NewAuthorService(s.store.Authors(), s.logger)
	postService := service.NewPostService(s.store.Posts(), sanitizer, s.logger)
	authService := service.NewAuthService(s.store.Users(), passwords, tokens, s.logger)

	loaders := loader.NewFactory(s.store.Authors(), s.store.Posts(), s.logger,
		dataloader.WithWait(s.config.Loader.Wait),
		dataloader.WithMaxBatch(s.config.Loader.MaxBatch),
		dataloader.WithObserver(collector.ObserveBatch),
	)

	schema, err := graph.NewSchema(graph.Config{
		MaxDepth:       s.config.GraphQL.MaxDepth,
		MaxParallelism: s.config.GraphQL.MaxParallelism,
	}, authorService, postService, authService, s.logger)
	if err != nil {
		return fmt.Errorf("parsing graphql schema: %w", err)
	}

	s.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:            rate.Limit(s.config.RateLimit.PerMinute / 60),
		Burst:           s.config.RateLimit.Burst,
		CleanupInterval: s.config.RateLimit.CleanupInterval,
	}, collector, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(collector))

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler(s.registry))

	protect := auth.RequireAuth(tokens)
	authorHandler := handler.NewAuthorHandler(authorService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.config.App.SecureCookies, s.logger)

	s.router.Route("/rest", func(r chi.Router) {
		authorHandler.Routes(r, protect)
		postHandler.Routes(r, protect)
		authHandler.Routes(r, s.limiter.Middleware, protect)
	})

	s.router.With(auth.OptionalAuth(tokens), loaders.Middleware).
		Method(http.MethodPost, "/graphql", graph.Handler(schema))

	if s.config.GraphQL.Playground {
		playground, err := handler.NewPlaygroundHandler("/graphql", s.logger)
		if err != nil {
			return fmt.Errorf("creating playground handler: %w", err)
		}
		s.router.Get("/playground", playground.HandlePlayground)
	}

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, body := http.StatusOK, map[string]string{"status": "ok", "database": "up"}
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		status, body = http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode health response")
	}
}

// Close stops the rate limiter and closes the database.
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.store.Close()
}

// Start serves until the process is signalled, then drains in-flight
// requests for up to the configured shutdown timeout.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.App.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().
			Int("port", s.config.App.Port).
			Str("env", s.config.App.Env).
			Str("driver", s.config.Database.Driver).
			Bool("playground", s.config.GraphQL.Playground).
			Msg("server starting")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), s.config.App.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info().Msg("server stopped gracefully")
	}

	return nil
}

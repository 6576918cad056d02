// Package server wires configuration, storage and infrastructure into an
// HTTP server and owns their lifecycle.
//
// STARTUP ORDER:
//
//	config → store → redis (optional) → event publisher (optional)
//	       → services → handlers → routes
//
// Redis and RabbitMQ are optional. When they are not configured, or cannot
// be reached at startup, the server runs without rate limiting or events and
// logs a warning; entries and goals never depend on them.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/ecoguardian/internal/auth"
	"github.com/sakif/ecoguardian/internal/config"
	"github.com/sakif/ecoguardian/internal/events"
	"github.com/sakif/ecoguardian/internal/handler"
	"github.com/sakif/ecoguardian/internal/middleware"
	"github.com/sakif/ecoguardian/internal/repository"
	"github.com/sakif/ecoguardian/internal/service"
)

type Server struct {
	router    *chi.Mux
	cfg       config.Config
	logger    *slog.Logger
	store     repository.Store
	publisher events.Publisher
	redis     *redis.Client // nil when rate limiting is off
}

// New opens the store and connects to the optional infrastructure. On any
// error everything opened so far is closed again.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("configuring tokens (set JWT_SECRET): %w", err)
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    chi.NewRouter(),
		cfg:       cfg,
		logger:    logger,
		store:     store,
		publisher: events.Noop{},
	}

	if cfg.Redis.Enabled() && cfg.RateLimit.Enabled {
		rdb, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, rate limiting disabled", slog.String("error", err.Error()))
		} else {
			s.redis = rdb
		}
	}

	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Warn("rabbitmq unavailable, domain events disabled", slog.String("error", err.Error()))
		} else {
			s.publisher = pub
		}
	}

	s.setupRoutes(tokens)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(tokens *auth.TokenService) {
	// Order matters: RequestID must run before Logger so the log line can
	// carry the ID, and Recoverer must wrap everything below it.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	authService := service.NewAuthService(s.store, tokens, auth.NewPasswordService(), s.logger)
	entryService := service.NewEntryService(s.store, s.publisher, s.logger)
	goalService := service.NewGoalService(s.store, s.store, s.publisher, s.logger)

	var github auth.OAuthProvider
	if s.cfg.Auth.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.cfg.Auth.GitHubClientID, s.cfg.Auth.GitHubClientSecret, s.cfg.Auth.GitHubCallbackURL)
	}

	authHandler := handler.NewAuthHandler(authService, github, tokens.TTL(), s.cfg.Auth.SecureCookies, s.logger)
	entryHandler := handler.NewEntryHandler(entryService)
	goalHandler := handler.NewGoalHandler(goalService)

	limit := middleware.RateLimit(s.cfg.RateLimit, s.redis, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/auth/github", func(r chi.Router) {
		r.Use(limit)
		r.Get("/login", authHandler.HandleGitHubLogin)
		r.Get("/callback", authHandler.HandleGitHubCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public endpoints are limited per IP.
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/auth/signup", authHandler.HandleSignup)
			r.Post("/auth/login", authHandler.HandleLogin)
			r.Post("/auth/logout", authHandler.HandleLogout)
		})

		// Everything else needs a token and is limited per user.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Use(limit)

			r.Get("/auth/me", authHandler.HandleMe)

			r.Route("/carbon-entries", func(r chi.Router) {
				r.Post("/", entryHandler.HandleCreate)
				r.Get("/", entryHandler.HandleList)
				r.Get("/stats", entryHandler.HandleStats)
				r.Get("/analytics", entryHandler.HandleAnalytics)
				r.Get("/context", entryHandler.HandleContext)
			})

			r.Route("/goals", func(r chi.Router) {
				r.Post("/", goalHandler.HandleCreate)
				r.Get("/", goalHandler.HandleList)
				r.Get("/active", goalHandler.HandleActive)
				r.Get("/progress", goalHandler.HandleProgress)
			})
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and releases every resource.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("store", s.cfg.Store),
			slog.Bool("github_login", s.cfg.Auth.GitHubEnabled()),
			slog.Bool("rate_limit", s.redis != nil),
			slog.Bool("events", s.cfg.AMQPURL != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the store, the publisher and the Redis client.
func (s *Server) Close() error {
	var errs []error
	if err := s.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing publisher: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}

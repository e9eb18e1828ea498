package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/information-sharing-networks/pass-issuer/internal/config"
	"github.com/information-sharing-networks/pass-issuer/internal/database"
	"github.com/information-sharing-networks/pass-issuer/internal/registry"
	"github.com/information-sharing-networks/pass-issuer/internal/server/handlers"
	"github.com/information-sharing-networks/pass-issuer/internal/server/middleware"
	"github.com/information-sharing-networks/pass-issuer/internal/version"
)

// Dependencies are the collaborators the HTTP handlers use.
type Dependencies struct {
	// Registry is required.
	Registry *registry.Client

	// Verifier is required.
	Verifier handlers.DocumentVerifier

	// Pool is the database pool backing the ledger. It is nil when the in-memory ledger is used.
	Pool *pgxpool.Pool

	// JWKSet holds the issuer's public keys. /.well-known/jwks.json is not served when it is nil.
	JWKSet jwk.Set

	// EnableAdmin mounts the issue and revoke endpoints under /admin.
	EnableAdmin bool
}

type Server struct {
	config *config.IssuerEnvironment
	deps   Dependencies
	logger *slog.Logger
	router *chi.Mux
}

func NewServer(cfg *config.IssuerEnvironment, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("registry client is required")
	}
	if deps.Verifier == nil {
		return nil, errors.New("verifier is required")
	}

	server := &Server{
		config: cfg,
		deps:   deps,
		logger: logger,
		router: chi.NewRouter(),
	}

	server.setupMiddleware()
	server.registerRoutes()

	return server, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.RequestLogging(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(chimiddleware.Timeout(60 * time.Second))
}

func (s *Server) registerRoutes() {
	var readiness handlers.ReadinessChecker
	if s.deps.Pool != nil {
		readiness = database.New(s.deps.Pool)
	}

	s.router.NotFound(handlers.HandleNotFound)

	s.router.Get("/health", handlers.HandleHealth)
	s.router.Get("/ready", handlers.HandleReadiness(readiness))
	s.router.Get("/version", handlers.HandleVersion(version.Get()))

	if s.deps.JWKSet != nil {
		s.router.Get("/.well-known/jwks.json", handlers.HandleJWKS(s.deps.JWKSet))
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.config.RateLimitRPS, s.config.RateLimitBurst))
		r.Use(middleware.RequestSizeLimit(s.config.MaxRequestSize))

		r.Get("/hashes/{hash}/status", handlers.HandleHashStatus(s.deps.Registry))
		r.Post("/verify", handlers.HandleVerify(s.deps.Verifier))
	})

	if s.deps.EnableAdmin {
		s.router.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequestSizeLimit(s.config.MaxRequestSize))

			r.Post("/hashes/issue", handlers.HandleIssueHashes(s.deps.Registry))
			r.Post("/hashes/revoke", handlers.HandleRevokeHashes(s.deps.Registry))
		})
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr),
			slog.String("registry", s.deps.Registry.Address()),
			slog.Bool("admin", s.deps.EnableAdmin))

		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}

func (s *Server) DatabaseShutdown() {
	if s.deps.Pool != nil {
		s.deps.Pool.Close()
		s.logger.Info("database connection closed")
	}
}

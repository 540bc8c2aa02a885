// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "composition root": the one place where the dependency chain
// is assembled and wired to routes. main.go stays minimal (read config,
// start the server) and nothing else in the codebase knows how its
// collaborators are constructed.
//
// DEPENDENCY CHAIN:
//
//	sqlite.DB → repository.UserRepository
//	auth.PasswordService, auth.TokenService, storage.Uploader
//	    ↓ all injected into
//	service.AccountService → handler.AccountHandler → routes
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/account-service/internal/auth"
	"github.com/sakif/account-service/internal/handler"
	"github.com/sakif/account-service/internal/middleware"
	sqliteRepo "github.com/sakif/account-service/internal/repository/sqlite"
	"github.com/sakif/account-service/internal/service"
	"github.com/sakif/account-service/internal/storage"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router and the resources that must be released on
// shutdown (currently just the database connection).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with its full dependency graph.
//
// uploads is the avatar image host client; pass nil to run without one
// (registrations that attach an avatar file are then rejected).
func New(cfg Config, logger *slog.Logger, uploads storage.Uploader) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes(tokens, uploads)

	return s, nil
}

// setupRoutes configures middleware and wires handlers to routes.
//
// ROUTE STRUCTURE:
//
//	GET  /healthz       → liveness probe
//	POST /api/register  → create account
//	POST /api/login     → credential check + token issue
//	GET  /api/me        → current profile (bearer token required)
//
// MIDDLEWARE ORDER MATTERS — RequestID and RealIP first so the logger and
// recoverer see their effects, Recoverer before our logger so a panicking
// handler still produces a request log line.
func (s *Server) setupRoutes(tokens *auth.TokenService, uploads storage.Uploader) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	accounts := service.NewAccountService(
		s.db,
		auth.NewPasswordService(),
		tokens,
		uploads,
		s.logger,
	)
	accountHandler := handler.NewAccountHandler(accounts, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/register", accountHandler.HandleRegister)
		r.Post("/login", accountHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", accountHandler.HandleMe)
		})
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s to
// finish, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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

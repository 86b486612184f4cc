// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mangetsu/mangetsu/internal/catalog/chapter"
	"github.com/mangetsu/mangetsu/internal/catalog/team"
	"github.com/mangetsu/mangetsu/internal/catalog/title"
	"github.com/mangetsu/mangetsu/internal/platform/config"
	"github.com/mangetsu/mangetsu/internal/platform/constants"
	"github.com/mangetsu/mangetsu/internal/platform/middleware"
	"github.com/mangetsu/mangetsu/internal/social/comment"
	"github.com/mangetsu/mangetsu/internal/social/list"
	"github.com/mangetsu/mangetsu/internal/social/notification"
	"github.com/mangetsu/mangetsu/internal/social/subscription"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Title handles the series catalogue and ratings.
	Title *title.Handler

	// Chapter handles the release pipeline and reading endpoints.
	Chapter *chapter.Handler

	// Team manages scanlation teams and their rosters.
	Team *team.Handler

	// List manages user reading lists.
	List *list.Handler

	// Comment handles title discussion threads.
	Comment *comment.Handler

	// Subscription manages title/team release follows.
	Subscription *subscription.Handler

	// Notification serves the per-user inbox.
	Notification *notification.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg, cfg.ExtraOrigins))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		h.Title.RegisterRoutes(api)
		h.Chapter.RegisterRoutes(api)
		h.Team.RegisterRoutes(api)
		h.List.RegisterRoutes(api)
		h.Comment.RegisterRoutes(api)
		h.Subscription.RegisterRoutes(api)
		h.Notification.RegisterRoutes(api)
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}

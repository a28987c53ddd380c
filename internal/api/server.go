// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api is the composition root of the HTTP transport: it builds the chi
router, the global middleware chain and the [http.Server] around the training
handlers.

Route map:

  - /health, /ready: unauthenticated probes.
  - /metrics: Prometheus scrape endpoint, when metrics are enabled.
  - /api/v1/sessions, /api/v1/participants: the roster API.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/gymroster/internal/platform/config"
	"github.com/taibuivan/gymroster/internal/platform/constants"
	"github.com/taibuivan/gymroster/internal/platform/metrics"
	"github.com/taibuivan/gymroster/internal/platform/middleware"
	"github.com/taibuivan/gymroster/internal/training"
)

// Server owns the router and the listening [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc

	// Training handles sessions, rosters, schedules and the live roster feed.
	Training *training.Handler

	// Metrics, when set, instruments every request and serves the scrape endpoint.
	Metrics *metrics.Registry
}

// NewServer builds the router and the server. context bounds background
// goroutines owned by middleware, such as the rate limiter sweeper.
//
// # Middleware Order
//
// RequestID runs first so every later layer, metrics included, sees the id.
// Authenticate runs before routing, so a rejected token is labelled as an
// unmatched route in metrics.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, handlers Handlers) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID())
	if handlers.Metrics != nil {
		router.Use(handlers.Metrics.Middleware())
	}
	router.Use(
		middleware.StructuredLogger(log),
		middleware.Timeout(constants.GlobalRequestTimeout),
		middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware(context),
		middleware.PanicRecovery(log),
		middleware.Authenticate(verifier),
		middleware.CORS(cfg),
		chimw.CleanPath,
	)

	router.Get("/health", handlers.Liveness)
	router.Get("/ready", handlers.Readiness)
	if handlers.Metrics != nil {
		router.Method(http.MethodGet, constants.MetricsPath, handlers.Metrics.Handler())
	}

	router.Route("/api/v1", func(api chi.Router) {
		api.Mount("/sessions", handlers.Training.SessionRoutes())
		api.Mount("/participants", handlers.Training.ParticipantRoutes())
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadTimeout:       constants.DefaultReadTimeout,
		WriteTimeout:      constants.DefaultWriteTimeout,
		IdleTimeout:       constants.DefaultIdleTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
	}
	httpServer.RegisterOnShutdown(handlers.Training.Shutdown)

	return &Server{httpServer: httpServer, router: router, log: log}
}

// Handler exposes the composed router, mainly for httptest.
func (server *Server) Handler() http.Handler {
	return server.router
}

// # Server Lifecycle

// ListenAndServe blocks until the server is shut down. A clean shutdown returns
// [http.ErrServerClosed].
func (server *Server) ListenAndServe() error {
	server.log.Info("server_starting", slog.String("addr", server.httpServer.Addr))
	return server.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections, closes live feeds and waits up to
// timeout for in-flight requests.
func (server *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.httpServer.Shutdown(context)
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the gymroster HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Select the session store: PostgreSQL (plus migrations) or in-memory.
//  4. Connect to Redis when the roster event stream is configured.
//  5. Register Prometheus collectors and start the roster event dispatcher.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/taibuivan/gymroster/internal/api"
	"github.com/taibuivan/gymroster/internal/platform/config"
	"github.com/taibuivan/gymroster/internal/platform/constants"
	"github.com/taibuivan/gymroster/internal/platform/metrics"
	"github.com/taibuivan/gymroster/internal/platform/migration"
	pgstore "github.com/taibuivan/gymroster/internal/platform/postgres"
	redisstore "github.com/taibuivan/gymroster/internal/platform/redis"
	"github.com/taibuivan/gymroster/internal/platform/sec"
	"github.com/taibuivan/gymroster/internal/training"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Root context for background routines (rate limiter cleanup).
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	health := api.HealthDependencies{}
	sinks := []training.Sink{training.NewLogSink(log)}

	// ── 3. Session Store ──────────────────────────────────────────────────
	var store training.SessionStore
	if cfg.UsesPostgres() {
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, pgstore.Options{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns}, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		store = training.NewPostgresStore(pool)
		health.CheckDatabase = func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }
	} else {
		log.Warn("session_store_in_memory", slog.String("reason", "DATABASE_URL is not set"))
		store = training.NewMemoryStore()
	}

	// ── 4. Redis Event Stream ─────────────────────────────────────────────
	if cfg.UsesRedis() {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, cfg.RedisPoolSize, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()

		sinks = append(sinks, training.NewRedisStreamSink(rdb, cfg.Notify.Stream, cfg.Notify.StreamMaxLen, log))
		health.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}

	// ── 5. Roster Events ──────────────────────────────────────────────────
	feed := training.NewFeedHub(log, func(request *http.Request) bool {
		origin := request.Header.Get(constants.HeaderOrigin)
		return origin == "" || cfg.IsDevelopment() || strings.HasSuffix(origin, cfg.OriginSuffix())
	})
	sinks = append(sinks, feed)

	var registry *metrics.Registry
	rosterOptions := training.RosterOptions{
		MaxCommitAttempts: cfg.Roster.MaxCommitAttempts,
		RetryBackoff:      cfg.Roster.RetryBackoff,
	}
	if cfg.MetricsEnabled {
		registry = metrics.New()
		sinks = append(sinks, training.NewMetricsSink(registry.RosterChanges))
		rosterOptions.Conflicts = registry.CommitConflicts
	}

	dispatcher := training.NewDispatcher(log, cfg.Notify.BufferSize, cfg.Notify.Workers, sinks...)
	if registry != nil {
		dispatcher.CountDrops(registry.EventsDropped)
	}
	dispatcher.Start()
	health.CheckEvents = dispatcher.Ready

	// ── 6. Token Verification ─────────────────────────────────────────────
	verifier, err := sec.NewVerifier(cfg.JWTPubKeyPath, constants.AuthIssuer, constants.AuthClockSkew)
	must(log, err, "load token verification key")

	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	roster := training.NewRosterManager(store, dispatcher, log, rosterOptions)
	schedule := training.NewScheduleQuery(store)
	trainingService := training.NewService(store, roster, schedule, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Training:  training.NewHandler(trainingService, roster, schedule, feed),
		Metrics:   registry,
	}

	server := api.NewServer(appCtx, cfg, log, verifier, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("server_shutting_down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
	}

	// Flush queued roster events after the last request finished.
	dispatcher.Close()

	log.Info("server_stopped")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

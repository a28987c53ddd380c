// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/gymroster/internal/platform/constants"
	"github.com/taibuivan/gymroster/internal/platform/respond"
)

// checkTimeout bounds a single readiness probe.
const checkTimeout = 2 * time.Second

// HealthDependencies holds the readiness probes. A nil probe means the
// dependency is not configured (memory store, no event stream).
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase func(context.Context) error

	// CheckCache pings the Redis client backing the roster event stream.
	CheckCache func(context.Context) error

	// CheckEvents fails while the roster event dispatcher drops events.
	CheckEvents func(context.Context) error
}

type namedCheck struct {
	name  string
	probe func(context.Context) error
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthHandler struct {
	checks []namedCheck
	logger *slog.Logger
}

// NewHealthHandlers creates the /health and /ready handlers.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{logger: logger}
	for _, check := range []namedCheck{
		{"postgres", deps.CheckDatabase},
		{"redis", deps.CheckCache},
		{"roster_events", deps.CheckEvents},
	} {
		if check.probe != nil {
			handler.checks = append(handler.checks, check)
		}
	}
	return handler.liveness, handler.readiness
}

// liveness answers 200 while the process serves HTTP at all.
func (handler *healthHandler) liveness(writer http.ResponseWriter, _ *http.Request) {
	respond.OK(writer, map[string]string{
		constants.FieldStatus:  "ok",
		constants.FieldApp:     constants.AppName,
		constants.FieldVersion: constants.AppVersion,
	})
}

// readiness runs every probe concurrently and answers 503 if any failed.
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]checkResult, len(handler.checks))

	var group errgroup.Group
	for index, check := range handler.checks {
		group.Go(func() error {
			context, cancel := context.WithTimeout(request.Context(), checkTimeout)
			defer cancel()

			results[index] = checkResult{Name: check.name, IsOK: true}
			if err := check.probe(context); err != nil {
				results[index] = checkResult{Name: check.name, Error: err.Error()}
				handler.logger.Error("readiness_check_failed", slog.String("dependency", check.name), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = group.Wait()

	status, httpStatus := "ready", http.StatusOK
	for _, result := range results {
		if !result.IsOK {
			status, httpStatus = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	}})
}

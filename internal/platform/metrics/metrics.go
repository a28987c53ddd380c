// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics exposes Prometheus collectors for the HTTP layer and the roster engine.

Every [Registry] owns its own [prometheus.Registry], so tests can build isolated
instances without tripping over duplicate registration.

Usage:

	registry := metrics.New()
	router.Use(registry.Middleware())
	router.Handle("/metrics", registry.Handler())
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/gymroster/internal/platform/constants"
)

// unmatchedRoute labels requests that never reached a registered route.
const unmatchedRoute = "unmatched"

// # Registry

// Registry groups the collectors exported by the API server.
type Registry struct {
	registry *prometheus.Registry

	// HTTPRequests counts finished requests by method, route pattern and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration observes request latency by method and route pattern.
	HTTPDuration *prometheus.HistogramVec

	// RosterChanges counts committed roster transitions by change and placement.
	RosterChanges *prometheus.CounterVec

	// CommitConflicts counts compare-and-save attempts lost to a concurrent writer.
	CommitConflicts prometheus.Counter

	// EventsDropped counts roster events the dispatcher discarded, by reason.
	EventsDropped *prometheus.CounterVec
}

// New registers every collector, plus the Go runtime and process collectors.
func New() *Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Registry{
		registry: registry,

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Finished HTTP requests.",
		}, []string{"method", "route", "status"}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		}, []string{"method", "route"}),

		RosterChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "roster",
			Name:      "changes_total",
			Help:      "Committed roster transitions.",
		}, []string{"change", "placement"}),

		CommitConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "roster",
			Name:      "commit_conflicts_total",
			Help:      "Roster commits retried after a version conflict.",
		}),

		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "roster",
			Name:      "events_dropped_total",
			Help:      "Roster events discarded before delivery.",
		}, []string{"reason"}),
	}
}

// Gatherer exposes the underlying registry, mainly for tests.
func (registry *Registry) Gatherer() prometheus.Gatherer {
	return registry.registry
}

// Handler serves the scrape endpoint.
func (registry *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(registry.registry, promhttp.HandlerOpts{Registry: registry.registry})
}

// # HTTP Middleware

// Middleware records request count and latency labelled by chi route pattern.
//
// The pattern is read after the handler returns, once chi has resolved it. Raw
// paths are never used as labels.
func (registry *Registry) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()
			wrapped := chimw.NewWrapResponseWriter(writer, request.ProtoMajor)

			next.ServeHTTP(wrapped, request)

			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := unmatchedRoute
			if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
				if pattern := routeContext.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			registry.HTTPRequests.WithLabelValues(request.Method, route, strconv.Itoa(status)).Inc()
			registry.HTTPDuration.WithLabelValues(request.Method, route).Observe(time.Since(startTime).Seconds())
		})
	}
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and well-known header names.
  - Roster: Default commit-loop tuning and event stream naming.
  - Metrics: Prometheus namespace and endpoint path.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "gymroster-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the 'iss' claim the identity provider stamps on member tokens.
	AuthIssuer = "gymroster.app"

	// AuthClockSkew tolerates drift between the identity provider and this service.
	AuthClockSkew = 30 * time.Second
)

// # JSON Field Identifiers

const (
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderOrigin        = "Origin"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # Roster Engine

const (
	// DefaultMaxCommitAttempts bounds the optimistic compare-and-save loop.
	DefaultMaxCommitAttempts = 5

	// DefaultRetryBackoff is the base delay between two commit attempts.
	DefaultRetryBackoff = 10 * time.Millisecond

	// MaxSessionCapacity is the largest basic roster a session may declare.
	MaxSessionCapacity = 1000

	// MaxSessionTitleLength caps the human-readable session title.
	MaxSessionTitleLength = 200

	// MaxIdentifierLength caps session, participant and trainer identifiers.
	MaxIdentifierLength = 64
)

// # Notifications

const (
	// DefaultNotifyBufferSize is the dispatcher queue length before events are dropped.
	DefaultNotifyBufferSize = 1024

	// DefaultNotifyWorkers is the number of goroutines draining the dispatcher queue.
	DefaultNotifyWorkers = 2

	// RedisStreamRosterEvents is the default stream receiving roster changes.
	RedisStreamRosterEvents = "training:roster_events"

	// StreamBreakerFailures consecutive XADD failures open the stream circuit breaker.
	StreamBreakerFailures = 5

	// StreamBreakerCooldown is how long the breaker stays open before a trial append.
	StreamBreakerCooldown = 30 * time.Second

	// FeedWriteTimeout bounds a single websocket frame write.
	FeedWriteTimeout = 5 * time.Second

	// FeedPingInterval is how often idle feed connections are pinged.
	FeedPingInterval = 30 * time.Second
)

// # Storage

const (
	// DefaultDBMaxConns caps the Postgres pool.
	DefaultDBMaxConns = 25

	// DefaultDBMinConns keeps warm Postgres connections.
	DefaultDBMinConns = 5

	// DefaultRedisPoolSize caps the Redis client pool used by the event stream.
	DefaultRedisPoolSize = 10
)

// # Metrics

const (
	// MetricsNamespace prefixes every exported Prometheus series.
	MetricsNamespace = "gymroster"

	// MetricsPath is the scrape endpoint.
	MetricsPath = "/metrics"
)

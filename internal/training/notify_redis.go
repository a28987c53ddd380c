// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/taibuivan/gymroster/internal/platform/constants"
)

// StreamAppender is the subset of the go-redis client used by [RedisStreamSink].
type StreamAppender interface {
	XAdd(context context.Context, arguments *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamSink appends roster events to a capped Redis stream.
//
// Downstream notification workers consume the stream with consumer groups; the
// stream is trimmed approximately to MaxLen entries on every append.
//
// A circuit breaker opens after [constants.StreamBreakerFailures] consecutive
// failures. While open, events fail fast instead of tying up dispatcher
// workers for the full delivery timeout.
type RedisStreamSink struct {
	client  StreamAppender
	stream  string
	maxLen  int64
	breaker *gobreaker.CircuitBreaker
}

// NewRedisStreamSink constructs a [RedisStreamSink] writing to the named stream,
// or to the default roster stream when stream is empty.
func NewRedisStreamSink(client StreamAppender, stream string, maxLen int64, logger *slog.Logger) *RedisStreamSink {
	if stream == "" {
		stream = constants.RedisStreamRosterEvents
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis_stream",
		MaxRequests: 1,
		Timeout:     constants.StreamBreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= constants.StreamBreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("stream_breaker_state_changed",
				slog.String("stream", stream),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen, breaker: breaker}
}

// Name implements [Sink].
func (sink *RedisStreamSink) Name() string { return "redis_stream" }

// Deliver implements [Sink].
func (sink *RedisStreamSink) Deliver(context context.Context, event RosterChanged) error {
	arguments := &redis.XAddArgs{
		Stream: sink.stream,
		Values: map[string]any{
			"session_id":     event.SessionID,
			"participant_id": event.ParticipantID,
			"change":         string(event.Change),
			"placement":      string(event.Placement),
			"timestamp":      event.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}
	if sink.maxLen > 0 {
		arguments.MaxLen = sink.maxLen
		arguments.Approx = true
	}

	_, err := sink.breaker.Execute(func() (any, error) {
		return nil, sink.client.XAdd(context, arguments).Err()
	})
	if err != nil {
		return fmt.Errorf("redis_stream: xadd %s: %w", sink.stream, err)
	}
	return nil
}

// BreakerState reports "closed", "half-open" or "open".
func (sink *RedisStreamSink) BreakerState() string {
	return sink.breaker.State().String()
}

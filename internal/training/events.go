// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/gymroster/internal/platform/constants"
)

// # Roster Events

// Change names the kind of roster transition.
type Change string

const (
	ChangeEnrolled  Change = "enrolled"
	ChangeCancelled Change = "cancelled"
	ChangePromoted  Change = "promoted"
)

// RosterChanged is emitted after every committed roster transition.
//
// Placement is the participant's placement after the change; for cancellations it
// is the placement that was vacated.
type RosterChanged struct {
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	Change        Change    `json:"change"`
	Placement     Placement `json:"placement"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher accepts roster events. Publish must never block the caller.
type Publisher interface {
	Publish(event RosterChanged)
}

// Sink delivers one event to a single destination.
type Sink interface {
	Name() string
	Deliver(context context.Context, event RosterChanged) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(RosterChanged) {}

// # Dispatcher

// deliveryTimeout bounds a single sink delivery.
const deliveryTimeout = 5 * time.Second

// Dispatcher fans roster events out to sinks on background workers.
//
// Publish enqueues into a bounded buffer and drops the event with a warning when
// the buffer is full. Sink failures are logged and never reach the publisher.
type Dispatcher struct {
	queue   chan RosterChanged
	sinks   []Sink
	workers int
	logger  *slog.Logger
	drops   *prometheus.CounterVec

	mu      sync.RWMutex
	closed  bool
	started sync.Once
	wg      sync.WaitGroup
}

// NewDispatcher constructs a [Dispatcher]. Call Start before publishing.
// Non-positive sizes fall back to the platform defaults.
func NewDispatcher(logger *slog.Logger, bufferSize, workers int, sinks ...Sink) *Dispatcher {
	if bufferSize < 1 {
		bufferSize = constants.DefaultNotifyBufferSize
	}
	if workers < 1 {
		workers = constants.DefaultNotifyWorkers
	}

	return &Dispatcher{
		queue:   make(chan RosterChanged, bufferSize),
		sinks:   sinks,
		workers: workers,
		logger:  logger,
	}
}

// CountDrops records discarded events in counter, labelled by reason. Call before Start.
func (dispatcher *Dispatcher) CountDrops(counter *prometheus.CounterVec) {
	dispatcher.drops = counter
}

// Start launches the worker goroutines. Subsequent calls are no-ops.
func (dispatcher *Dispatcher) Start() {
	dispatcher.started.Do(func() {
		for range dispatcher.workers {
			dispatcher.wg.Add(1)
			go dispatcher.run()
		}
		dispatcher.logger.Info("roster_dispatcher_started",
			slog.Int("workers", dispatcher.workers),
			slog.Int("buffer_size", cap(dispatcher.queue)),
			slog.Int("sinks", len(dispatcher.sinks)),
		)
	})
}

// Publish enqueues the event without blocking.
func (dispatcher *Dispatcher) Publish(event RosterChanged) {
	dispatcher.mu.RLock()
	defer dispatcher.mu.RUnlock()

	if dispatcher.closed {
		dispatcher.drop("dispatcher_closed", event)
		return
	}

	select {
	case dispatcher.queue <- event:
	default:
		dispatcher.drop("buffer_full", event)
	}
}

func (dispatcher *Dispatcher) drop(reason string, event RosterChanged) {
	if dispatcher.drops != nil {
		dispatcher.drops.WithLabelValues(reason).Inc()
	}
	dispatcher.logger.Warn("roster_event_dropped",
		slog.String("reason", reason),
		slog.String("session_id", event.SessionID),
		slog.String("participant_id", event.ParticipantID),
		slog.String("change", string(event.Change)),
	)
}

// Ready reports whether new events would be accepted. A closed dispatcher or a
// full buffer means events are being dropped right now.
func (dispatcher *Dispatcher) Ready(context.Context) error {
	dispatcher.mu.RLock()
	defer dispatcher.mu.RUnlock()

	switch {
	case dispatcher.closed:
		return errors.New("roster event dispatcher is closed")
	case len(dispatcher.queue) == cap(dispatcher.queue):
		return fmt.Errorf("roster event queue is full (%d events)", cap(dispatcher.queue))
	}
	return nil
}

// Close stops intake, drains the buffer and waits for the workers.
func (dispatcher *Dispatcher) Close() {
	dispatcher.mu.Lock()
	if dispatcher.closed {
		dispatcher.mu.Unlock()
		return
	}
	dispatcher.closed = true
	close(dispatcher.queue)
	dispatcher.mu.Unlock()

	// Workers must exist to drain what is already queued.
	dispatcher.Start()
	dispatcher.wg.Wait()
	dispatcher.logger.Info("roster_dispatcher_stopped")
}

func (dispatcher *Dispatcher) run() {
	defer dispatcher.wg.Done()

	for event := range dispatcher.queue {
		for _, sink := range dispatcher.sinks {
			dispatcher.deliver(sink, event)
		}
	}
}

func (dispatcher *Dispatcher) deliver(sink Sink, event RosterChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := sink.Deliver(ctx, event); err != nil {
		dispatcher.logger.Error("roster_event_delivery_failed",
			slog.String("sink", sink.Name()),
			slog.String("session_id", event.SessionID),
			slog.String("participant_id", event.ParticipantID),
			slog.String("change", string(event.Change)),
			slog.Any("error", err),
		)
	}
}

// # Log Sink

// LogSink records every roster event as a structured log line.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink constructs a [LogSink].
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Name implements [Sink].
func (sink *LogSink) Name() string { return "log" }

// Deliver implements [Sink].
func (sink *LogSink) Deliver(context context.Context, event RosterChanged) error {
	sink.logger.InfoContext(context, "roster_changed",
		slog.String("session_id", event.SessionID),
		slog.String("participant_id", event.ParticipantID),
		slog.String("change", string(event.Change)),
		slog.String("placement", string(event.Placement)),
		slog.Time("timestamp", event.Timestamp),
	)
	return nil
}

// # Metrics Sink

// MetricsSink counts delivered roster events by change and placement.
type MetricsSink struct {
	changes *prometheus.CounterVec
}

// NewMetricsSink constructs a [MetricsSink] over a change/placement counter.
func NewMetricsSink(changes *prometheus.CounterVec) *MetricsSink {
	return &MetricsSink{changes: changes}
}

// Name implements [Sink].
func (sink *MetricsSink) Name() string { return "metrics" }

// Deliver implements [Sink].
func (sink *MetricsSink) Deliver(_ context.Context, event RosterChanged) error {
	counter, err := sink.changes.GetMetricWithLabelValues(string(event.Change), string(event.Placement))
	if err != nil {
		return err
	}
	counter.Inc()
	return nil
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gymroster/internal/training"
)

// baseTime is far enough in the future for reschedule checks against the wall clock.
var baseTime = time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []training.RosterChanged
}

func (publisher *recordingPublisher) Publish(event training.RosterChanged) {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	publisher.events = append(publisher.events, event)
}

func (publisher *recordingPublisher) Events() []training.RosterChanged {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	return append([]training.RosterChanged(nil), publisher.events...)
}

type fixture struct {
	store     *training.MemoryStore
	publisher *recordingPublisher
	roster    *training.RosterManager
	schedule  *training.ScheduleQuery
	service   *training.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := training.NewMemoryStore()
	publisher := &recordingPublisher{}
	roster := training.NewRosterManager(store, publisher, discardLogger(), training.RosterOptions{MaxCommitAttempts: 5})
	schedule := training.NewScheduleQuery(store)

	return &fixture{
		store:     store,
		publisher: publisher,
		roster:    roster,
		schedule:  schedule,
		service:   training.NewService(store, roster, schedule, discardLogger()),
	}
}

func sessionInput(title string, start time.Time, duration time.Duration, capacity int, trainerIDs ...string) training.CreateSessionInput {
	if len(trainerIDs) == 0 {
		trainerIDs = []string{"trainer-" + title}
	}
	return training.CreateSessionInput{
		Title:          title,
		TrainingTypeID: "hiit",
		TrainerIDs:     trainerIDs,
		LocationID:     "studio-1",
		StartTime:      start,
		EndTime:        start.Add(duration),
		Capacity:       capacity,
	}
}

func (f *fixture) createSession(t *testing.T, input training.CreateSessionInput) *training.Session {
	t.Helper()
	session, err := f.service.CreateSession(context.Background(), input)
	require.NoError(t, err)
	return session
}

// beforeStart is an enrollment instant one day before the session begins.
func beforeStart(session *training.Session) time.Time {
	return session.StartTime.Add(-24 * time.Hour)
}

func participantIDs(records []training.EnrollmentRecord) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ParticipantID)
	}
	return ids
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gymroster/internal/training"
)

func storedSession(id, slug string) *training.Session {
	return &training.Session{
		ID:         id,
		Title:      "Kettlebell",
		Slug:       slug,
		TrainerIDs: []string{"t-1"},
		StartTime:  baseTime,
		EndTime:    baseTime.Add(time.Hour),
		Capacity:   2,
	}
}

/*
TestMemoryStore_CreateAndLoad covers versioning, slug lookups and duplicates.
*/
func TestMemoryStore_CreateAndLoad(t *testing.T) {
	store := training.NewMemoryStore()
	ctx := context.Background()

	session := storedSession("s-1", "kettlebell")
	require.NoError(t, store.Create(ctx, session))
	assert.Equal(t, int64(1), session.Version)
	assert.False(t, session.CreatedAt.IsZero())

	bySlug, err := store.LoadBySlug(ctx, "kettlebell")
	require.NoError(t, err)
	assert.Equal(t, "s-1", bySlug.ID)

	err = store.Create(ctx, storedSession("s-2", "kettlebell"))
	assert.ErrorIs(t, err, training.ErrSlugTaken)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, training.ErrSessionNotFound)

	_, err = store.LoadBySlug(ctx, "missing")
	assert.ErrorIs(t, err, training.ErrSessionNotFound)
}

/*
TestMemoryStore_CompareAndSave verifies the version check and the stale writer rejection.
*/
func TestMemoryStore_CompareAndSave(t *testing.T) {
	store := training.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, storedSession("s-1", "kettlebell")))

	first, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	second, err := store.Load(ctx, "s-1")
	require.NoError(t, err)

	first.Basic = []training.Enrollment{{ParticipantID: "A", JoinedAt: baseTime, Seq: 0}}
	first.NextSeq = 1
	version, err := store.CompareAndSave(ctx, first, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	second.Basic = []training.Enrollment{{ParticipantID: "B", JoinedAt: baseTime, Seq: 0}}
	_, err = store.CompareAndSave(ctx, second, 1)
	assert.ErrorIs(t, err, training.ErrVersionConflict)

	current, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, current.Basic, 1)
	assert.Equal(t, "A", current.Basic[0].ParticipantID)

	_, err = store.CompareAndSave(ctx, storedSession("missing", "x"), 1)
	assert.ErrorIs(t, err, training.ErrSessionNotFound)
}

/*
TestMemoryStore_ReturnsCopies verifies callers cannot mutate stored state in place.
*/
func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := training.NewMemoryStore()
	ctx := context.Background()

	session := storedSession("s-1", "kettlebell")
	require.NoError(t, store.Create(ctx, session))
	session.TrainerIDs[0] = "mutated"

	loaded, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	loaded.Basic = append(loaded.Basic, training.Enrollment{ParticipantID: "A"})
	loaded.TrainerIDs[0] = "mutated"

	again, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Empty(t, again.Basic)
	assert.Equal(t, []string{"t-1"}, again.TrainerIDs)
}

/*
TestMemoryStore_ListOverlapping applies the window and filter.
*/
func TestMemoryStore_ListOverlapping(t *testing.T) {
	store := training.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, storedSession("s-1", "one")))

	other := storedSession("s-2", "two")
	other.TrainerIDs = []string{"t-2"}
	require.NoError(t, store.Create(ctx, other))

	window := training.Window{From: baseTime.Add(30 * time.Minute), To: baseTime.Add(2 * time.Hour)}

	sessions, err := store.ListOverlapping(ctx, window, training.ScheduleFilter{})
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	sessions, err = store.ListOverlapping(ctx, window, training.ScheduleFilter{TrainerID: "t-2"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s-2", sessions[0].ID)

	sessions, err = store.ListOverlapping(ctx, training.Window{From: baseTime.Add(time.Hour), To: baseTime.Add(2 * time.Hour)}, training.ScheduleFilter{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

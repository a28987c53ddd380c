// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements [SessionStore] in process memory.
//
// It backs the server when DATABASE_URL is unset and every unit test.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	bySlug   map[string]string
	now      func() time.Time
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		bySlug:   make(map[string]string),
		now:      time.Now,
	}
}

// Create stores a copy of the session at version 1.
func (repository *MemoryStore) Create(_ context.Context, session *Session) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, taken := repository.bySlug[session.Slug]; taken {
		return ErrSlugTaken
	}

	currentTime := repository.now().UTC()
	session.Version = 1
	session.CreatedAt = currentTime
	session.UpdatedAt = currentTime

	repository.sessions[session.ID] = session.Clone()
	repository.bySlug[session.Slug] = session.ID
	return nil
}

// Load returns a copy of the session.
func (repository *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	stored, found := repository.sessions[id]
	if !found {
		return nil, ErrSessionNotFound
	}
	return stored.Clone(), nil
}

// LoadBySlug resolves the slug index and returns a copy of the session.
func (repository *MemoryStore) LoadBySlug(context context.Context, slug string) (*Session, error) {
	repository.mu.RLock()
	id, found := repository.bySlug[slug]
	repository.mu.RUnlock()

	if !found {
		return nil, ErrSessionNotFound
	}
	return repository.Load(context, id)
}

// CompareAndSave replaces the stored session when its version is unchanged.
func (repository *MemoryStore) CompareAndSave(_ context.Context, session *Session, expectedVersion int64) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, found := repository.sessions[session.ID]
	if !found {
		return 0, ErrSessionNotFound
	}
	if stored.Version != expectedVersion {
		return 0, ErrVersionConflict
	}

	saved := session.Clone()
	saved.Slug = stored.Slug
	saved.CreatedAt = stored.CreatedAt
	saved.Version = expectedVersion + 1
	saved.UpdatedAt = repository.now().UTC()

	repository.sessions[session.ID] = saved
	return saved.Version, nil
}

// ListOverlapping scans every session; the in-memory data set is small.
func (repository *MemoryStore) ListOverlapping(_ context.Context, window Window, filter ScheduleFilter) ([]*Session, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	var matches []*Session
	for _, stored := range repository.sessions {
		if !Overlaps(stored, window) || !filter.Matches(stored) {
			continue
		}
		matches = append(matches, stored.Clone())
	}
	return matches, nil
}

// compile-time check
var _ SessionStore = (*MemoryStore)(nil)

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import "sync"

// keyedMutex hands out one mutex per session ID.
//
// Entries are reference counted and removed once the last holder unlocks, so the
// map only grows with the number of sessions under contention.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock blocks until the key is free and returns its unlock function.
func (keyed *keyedMutex) Lock(key string) func() {
	keyed.mu.Lock()
	entry, found := keyed.locks[key]
	if !found {
		entry = &refMutex{}
		keyed.locks[key] = entry
	}
	entry.refs++
	keyed.mu.Unlock()

	entry.Lock()

	return func() {
		entry.Unlock()

		keyed.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(keyed.locks, key)
		}
		keyed.mu.Unlock()
	}
}

// size returns the number of keys currently held or awaited.
func (keyed *keyedMutex) size() int {
	keyed.mu.Lock()
	defer keyed.mu.Unlock()
	return len(keyed.locks)
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import "context"

// # Session Data Access

// SessionStore is the durable record of sessions and their rosters.
//
// Implementations hand out independent copies; mutating a loaded session has no
// effect until it is written back with CompareAndSave.
type SessionStore interface {

	/*
		Create persists a new session with its initial version.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: ErrSlugTaken on duplicate slugs, persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		Load retrieves a session by its UUID.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *Session: Independent copy
		  - error: ErrSessionNotFound if missing
	*/
	Load(context context.Context, id string) (*Session, error)

	/*
		LoadBySlug retrieves a session by its human-readable identifier.

		Parameters:
		  - context: context.Context
		  - slug: string

		Returns:
		  - *Session: Independent copy
		  - error: ErrSessionNotFound if missing
	*/
	LoadBySlug(context context.Context, slug string) (*Session, error)

	/*
		CompareAndSave writes the session only if the stored version still equals
		expectedVersion.

		Parameters:
		  - context: context.Context
		  - session: *Session (mutated copy)
		  - expectedVersion: int64

		Returns:
		  - int64: The new stored version
		  - error: ErrVersionConflict, ErrSessionNotFound, persistence failures
	*/
	CompareAndSave(context context.Context, session *Session, expectedVersion int64) (int64, error)

	/*
		ListOverlapping returns the sessions intersecting the window that match the
		filter. Ordering is unspecified.

		Parameters:
		  - context: context.Context
		  - window: Window (half-open)
		  - filter: ScheduleFilter

		Returns:
		  - []*Session: Independent copies
		  - error: Retrieval failures
	*/
	ListOverlapping(context context.Context, window Window, filter ScheduleFilter) ([]*Session, error)
}

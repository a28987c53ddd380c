// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"cmp"
	"context"
	"slices"
	"time"
)

// # Time Windows

// Window is a half-open time interval [From, To).
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Validate rejects empty and inverted windows.
func (window Window) Validate() error {
	if !window.From.Before(window.To) {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps reports whether the session intersects the window.
//
// Both intervals are half-open, so a session ending exactly at window.From does
// not overlap, nor does one starting exactly at window.To.
func Overlaps(session *Session, window Window) bool {
	return session.StartTime.Before(window.To) && session.EndTime.After(window.From)
}

// # Search & Filtering

// ScheduleFilter narrows overlap queries. Empty fields match everything.
type ScheduleFilter struct {
	TrainerID        string
	ParticipantID    string
	TrainingTypeID   string
	ExcludeSessionID string
}

// Matches applies the non-temporal part of the filter.
func (filter ScheduleFilter) Matches(session *Session) bool {
	if filter.ExcludeSessionID != "" && session.ID == filter.ExcludeSessionID {
		return false
	}
	if filter.TrainingTypeID != "" && session.TrainingTypeID != filter.TrainingTypeID {
		return false
	}
	if filter.TrainerID != "" && !slices.Contains(session.TrainerIDs, filter.TrainerID) {
		return false
	}
	if filter.ParticipantID != "" && session.PlacementOf(filter.ParticipantID) == PlacementNone {
		return false
	}
	return true
}

// # Schedule Query

// ScheduleQuery answers read-only questions about the session calendar.
//
// Results reflect committed store state and may lag concurrent roster commits.
type ScheduleQuery struct {
	store SessionStore
}

// NewScheduleQuery constructs a [ScheduleQuery] over the given store.
func NewScheduleQuery(store SessionStore) *ScheduleQuery {
	return &ScheduleQuery{store: store}
}

/*
FindOverlapping lists the sessions intersecting the window that match the filter.

Parameters:
  - context: context.Context
  - window: Window
  - filter: ScheduleFilter

Returns:
  - []SessionSummary: Sorted by StartTime, then ID
  - error: ErrInvalidWindow or retrieval failures
*/
func (query *ScheduleQuery) FindOverlapping(context context.Context, window Window, filter ScheduleFilter) ([]SessionSummary, error) {
	sessions, err := query.overlapping(context, window, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary := session.Summary()
		if filter.ParticipantID != "" {
			summary.Placement = session.PlacementOf(filter.ParticipantID)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

/*
FindForParticipant lists the sessions in the window where the participant holds a
basic or reserve place.

Parameters:
  - context: context.Context
  - participantID: string
  - window: Window

Returns:
  - []SessionSummary: Each carrying the participant's placement
  - error: ErrInvalidWindow or retrieval failures
*/
func (query *ScheduleQuery) FindForParticipant(context context.Context, participantID string, window Window) ([]SessionSummary, error) {
	return query.FindOverlapping(context, window, ScheduleFilter{ParticipantID: participantID})
}

/*
TrainerConflicts lists sessions in the window already staffed by any of the trainers.

Parameters:
  - context: context.Context
  - trainerIDs: []string
  - window: Window
  - excludeSessionID: string (The session being rescheduled, or empty)

Returns:
  - []SessionSummary: Distinct conflicting sessions, sorted like FindOverlapping
  - error: ErrInvalidWindow or retrieval failures
*/
func (query *ScheduleQuery) TrainerConflicts(context context.Context, trainerIDs []string, window Window, excludeSessionID string) ([]SessionSummary, error) {
	seen := make(map[string]struct{})
	var conflicts []*Session

	for _, trainerID := range trainerIDs {
		sessions, err := query.overlapping(context, window, ScheduleFilter{
			TrainerID:        trainerID,
			ExcludeSessionID: excludeSessionID,
		})
		if err != nil {
			return nil, err
		}

		for _, session := range sessions {
			if _, dup := seen[session.ID]; dup {
				continue
			}
			seen[session.ID] = struct{}{}
			conflicts = append(conflicts, session)
		}
	}

	sortSessions(conflicts)

	summaries := make([]SessionSummary, 0, len(conflicts))
	for _, session := range conflicts {
		summaries = append(summaries, session.Summary())
	}
	return summaries, nil
}

// overlapping re-applies the predicate on top of the store prefilter and sorts.
func (query *ScheduleQuery) overlapping(context context.Context, window Window, filter ScheduleFilter) ([]*Session, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	candidates, err := query.store.ListOverlapping(context, window, filter)
	if err != nil {
		return nil, err
	}

	sessions := candidates[:0]
	for _, session := range candidates {
		if Overlaps(session, window) && filter.Matches(session) {
			sessions = append(sessions, session)
		}
	}

	sortSessions(sessions)
	return sessions, nil
}

func sortSessions(sessions []*Session) {
	slices.SortFunc(sessions, func(left, right *Session) int {
		if byStart := left.StartTime.Compare(right.StartTime); byStart != 0 {
			return byStart
		}
		return cmp.Compare(left.ID, right.ID)
	})
}

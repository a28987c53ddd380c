// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package training manages group-training sessions and their rosters.

A session has a fixed capacity. Participants enroll into a bounded basic roster
and, once it is full, into an unbounded reserve queue. Cancelling a basic place
promotes the longest-waiting reserve participant in the same commit.

# Core Responsibility

  - Placement: [DecidePlacement] and [DecidePromotion] are pure decisions.
  - Roster: [RosterManager] serializes enroll and cancel per session.
  - Schedule: [ScheduleQuery] answers time-window overlap queries.
  - Events: Every committed change is published as a [RosterChanged].

Sessions are persisted through a [SessionStore] with version compare-and-save.
*/
package training

import (
	"fmt"
	"slices"
	"time"
)

// # Roster Enums

// Placement describes where a participant sits in a session roster.
type Placement string

const (
	PlacementNone    Placement = "none"
	PlacementBasic   Placement = "basic"
	PlacementReserve Placement = "reserve"
)

// # Core Entities

// Enrollment is one accepted participant in either roster collection.
type Enrollment struct {
	ParticipantID string    `json:"participant_id"`
	JoinedAt      time.Time `json:"joined_at"`
	Seq           int64     `json:"seq"` // Acceptance order, breaks JoinedAt ties
}

// Session is a scheduled group training with a capacity-bounded roster.
type Session struct {
	ID             string       `json:"id"` // UUIDv7
	Title          string       `json:"title"`
	Slug           string       `json:"slug"`
	TrainingTypeID string       `json:"training_type_id"`
	TrainerIDs     []string     `json:"trainer_ids"`
	LocationID     string       `json:"location_id,omitempty"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        time.Time    `json:"end_time"`
	Capacity       int          `json:"capacity"`
	Basic          []Enrollment `json:"-"`
	Reserve        []Enrollment `json:"-"` // FIFO by (JoinedAt, Seq)
	NextSeq        int64        `json:"-"`
	Version        int64        `json:"version"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// EnrollmentRecord is the read model of a single placement.
type EnrollmentRecord struct {
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	Placement     Placement `json:"placement"`
	Position      int       `json:"position"` // 1-based within its collection
	JoinedAt      time.Time `json:"joined_at"`
	Seq           int64     `json:"seq"`
}

// RosterView lists both collections of a session in their canonical order.
type RosterView struct {
	SessionID string             `json:"session_id"`
	Capacity  int                `json:"capacity"`
	FreeSlots int                `json:"free_slots"`
	Basic     []EnrollmentRecord `json:"basic"`
	Reserve   []EnrollmentRecord `json:"reserve"`
	Version   int64              `json:"version"`
}

// SessionSummary is the list representation returned by schedule queries.
type SessionSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Slug           string    `json:"slug"`
	TrainingTypeID string    `json:"training_type_id"`
	TrainerIDs     []string  `json:"trainer_ids"`
	LocationID     string    `json:"location_id,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Capacity       int       `json:"capacity"`
	BasicCount     int       `json:"basic_count"`
	ReserveCount   int       `json:"reserve_count"`
	Placement      Placement `json:"placement,omitempty"` // Set for participant queries
}

// # Field Identifiers

const (
	FieldTitle          = "title"
	FieldTrainingTypeID = "training_type_id"
	FieldTrainerIDs     = "trainer_ids"
	FieldStartTime      = "start_time"
	FieldCapacity       = "capacity"
	FieldParticipantID  = "participant_id"
	FieldSessionID      = "session_id"
	FieldWindow         = "window"
)

// # Roster Access

// PlacementOf reports where the participant currently sits.
func (session *Session) PlacementOf(participantID string) Placement {
	if indexOf(session.Basic, participantID) >= 0 {
		return PlacementBasic
	}
	if indexOf(session.Reserve, participantID) >= 0 {
		return PlacementReserve
	}
	return PlacementNone
}

// FreeSlots returns the number of unused basic places.
func (session *Session) FreeSlots() int {
	return max(session.Capacity-len(session.Basic), 0)
}

// HasStarted reports whether enrollment is closed at asOf.
func (session *Session) HasStarted(asOf time.Time) bool {
	return !asOf.Before(session.StartTime)
}

// Clone returns a deep copy that shares no slices with the receiver.
func (session *Session) Clone() *Session {
	clone := *session
	clone.TrainerIDs = slices.Clone(session.TrainerIDs)
	clone.Basic = slices.Clone(session.Basic)
	clone.Reserve = slices.Clone(session.Reserve)
	return &clone
}

// Summary projects the session into its list representation.
func (session *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:             session.ID,
		Title:          session.Title,
		Slug:           session.Slug,
		TrainingTypeID: session.TrainingTypeID,
		TrainerIDs:     slices.Clone(session.TrainerIDs),
		LocationID:     session.LocationID,
		StartTime:      session.StartTime,
		EndTime:        session.EndTime,
		Capacity:       session.Capacity,
		BasicCount:     len(session.Basic),
		ReserveCount:   len(session.Reserve),
	}
}

// View builds the ordered roster listing.
func (session *Session) View() *RosterView {
	return &RosterView{
		SessionID: session.ID,
		Capacity:  session.Capacity,
		FreeSlots: session.FreeSlots(),
		Basic:     session.records(session.Basic, PlacementBasic),
		Reserve:   session.records(session.Reserve, PlacementReserve),
		Version:   session.Version,
	}
}

// Record returns the participant's enrollment record, or nil when not enrolled.
func (session *Session) Record(participantID string) *EnrollmentRecord {
	for _, collection := range []struct {
		entries   []Enrollment
		placement Placement
	}{{session.Basic, PlacementBasic}, {session.Reserve, PlacementReserve}} {
		if index := indexOf(collection.entries, participantID); index >= 0 {
			record := session.record(collection.entries[index], collection.placement, index)
			return &record
		}
	}
	return nil
}

func (session *Session) records(entries []Enrollment, placement Placement) []EnrollmentRecord {
	records := make([]EnrollmentRecord, 0, len(entries))
	for index, entry := range entries {
		records = append(records, session.record(entry, placement, index))
	}
	return records
}

func (session *Session) record(entry Enrollment, placement Placement, index int) EnrollmentRecord {
	return EnrollmentRecord{
		SessionID:     session.ID,
		ParticipantID: entry.ParticipantID,
		Placement:     placement,
		Position:      index + 1,
		JoinedAt:      entry.JoinedAt,
		Seq:           entry.Seq,
	}
}

// # Roster Mutation

// admit stores the participant in the given collection and assigns the next Seq.
func (session *Session) admit(participantID string, placement Placement, joinedAt time.Time) Enrollment {
	entry := Enrollment{ParticipantID: participantID, JoinedAt: joinedAt, Seq: session.NextSeq}
	session.NextSeq++

	if placement == PlacementBasic {
		session.Basic = append(session.Basic, entry)
		return entry
	}

	// Insert after every entry that joined at or before this one.
	position := len(session.Reserve)
	for position > 0 && session.Reserve[position-1].JoinedAt.After(joinedAt) {
		position--
	}
	session.Reserve = slices.Insert(session.Reserve, position, entry)
	return entry
}

// remove drops the participant from whichever collection holds it.
func (session *Session) remove(participantID string) Placement {
	if index := indexOf(session.Basic, participantID); index >= 0 {
		session.Basic = slices.Delete(session.Basic, index, index+1)
		return PlacementBasic
	}
	if index := indexOf(session.Reserve, participantID); index >= 0 {
		session.Reserve = slices.Delete(session.Reserve, index, index+1)
		return PlacementReserve
	}
	return PlacementNone
}

// promote moves the reserve head into the basic roster.
func (session *Session) promote(participantID string) Enrollment {
	head := session.Reserve[0]
	if head.ParticipantID != participantID {
		panic(InvariantViolation{SessionID: session.ID, Rule: "promotion must take the reserve head"})
	}
	session.Reserve = slices.Delete(session.Reserve, 0, 1)
	session.Basic = append(session.Basic, head)
	return head
}

func indexOf(entries []Enrollment, participantID string) int {
	return slices.IndexFunc(entries, func(entry Enrollment) bool {
		return entry.ParticipantID == participantID
	})
}

// # Invariants

// InvariantViolation is raised with panic when a roster reaches an impossible state.
type InvariantViolation struct {
	SessionID string
	Rule      string
}

func (violation InvariantViolation) Error() string {
	return fmt.Sprintf("training: roster invariant violated for session %s: %s", violation.SessionID, violation.Rule)
}

// checkInvariants returns the first broken roster rule, or nil.
func (session *Session) checkInvariants() error {
	fail := func(format string, args ...any) error {
		return InvariantViolation{SessionID: session.ID, Rule: fmt.Sprintf(format, args...)}
	}

	if len(session.Basic) > session.Capacity {
		return fail("basic roster holds %d of %d", len(session.Basic), session.Capacity)
	}
	if len(session.Basic) < session.Capacity && len(session.Reserve) > 0 {
		return fail("reserve is non-empty while %d basic places are free", session.FreeSlots())
	}

	seen := make(map[string]struct{}, len(session.Basic)+len(session.Reserve))
	seqs := make(map[int64]struct{}, len(session.Basic)+len(session.Reserve))
	for _, entry := range slices.Concat(session.Basic, session.Reserve) {
		if _, dup := seen[entry.ParticipantID]; dup {
			return fail("participant %s is enrolled twice", entry.ParticipantID)
		}
		seen[entry.ParticipantID] = struct{}{}

		if _, dup := seqs[entry.Seq]; dup || entry.Seq >= session.NextSeq || entry.Seq < 0 {
			return fail("sequence %d is reused or out of range", entry.Seq)
		}
		seqs[entry.Seq] = struct{}{}
	}

	for index := 1; index < len(session.Reserve); index++ {
		previous, current := session.Reserve[index-1], session.Reserve[index]
		if current.JoinedAt.Before(previous.JoinedAt) ||
			(current.JoinedAt.Equal(previous.JoinedAt) && current.Seq < previous.Seq) {
			return fail("reserve is not FIFO at position %d", index+1)
		}
	}

	return nil
}

// mustHoldInvariants panics with an [InvariantViolation] when the roster is inconsistent.
func (session *Session) mustHoldInvariants() {
	if err := session.checkInvariants(); err != nil {
		panic(err)
	}
}

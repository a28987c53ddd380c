// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taibuivan/gymroster/internal/platform/constants"
	"github.com/taibuivan/gymroster/internal/platform/ctxutil"
	"github.com/taibuivan/gymroster/internal/platform/validate"
)

// # Roster Manager

// RosterOptions tunes the optimistic commit loop.
type RosterOptions struct {
	MaxCommitAttempts int
	RetryBackoff      time.Duration

	// Conflicts, when set, counts every lost compare-and-save.
	Conflicts prometheus.Counter
}

// EnrollmentResult describes an accepted enrollment.
type EnrollmentResult struct {
	Record EnrollmentRecord `json:"enrollment"`
}

// CancellationResult describes a committed cancellation.
type CancellationResult struct {
	SessionID     string            `json:"session_id"`
	ParticipantID string            `json:"participant_id"`
	Vacated       Placement         `json:"vacated"`
	Promoted      *EnrollmentRecord `json:"promoted,omitempty"`
}

// RosterManager enrolls and cancels participants.
//
// Mutations on one session are serialized by an in-process keyed lock and made
// safe across processes by version compare-and-save. Sessions never block each other.
type RosterManager struct {
	store     SessionStore
	publisher Publisher
	locks     *keyedMutex
	options   RosterOptions
	logger    *slog.Logger
}

// NewRosterManager constructs a [RosterManager]. A nil publisher discards events.
func NewRosterManager(store SessionStore, publisher Publisher, logger *slog.Logger, options RosterOptions) *RosterManager {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if options.MaxCommitAttempts < 1 {
		options.MaxCommitAttempts = constants.DefaultMaxCommitAttempts
	}
	if options.RetryBackoff < 0 {
		options.RetryBackoff = constants.DefaultRetryBackoff
	}

	return &RosterManager{
		store:     store,
		publisher: publisher,
		locks:     newKeyedMutex(),
		options:   options,
		logger:    logger,
	}
}

/*
Enroll places the participant in the basic roster or, when full, at the reserve tail.

Parameters:
  - context: context.Context
  - sessionID: string
  - participantID: string
  - asOf: time.Time (Evaluation instant, also recorded as JoinedAt)

Returns:
  - *EnrollmentResult: The new placement and position
  - error: ErrSessionNotFound, ErrSessionAlreadyStarted, ErrAlreadyEnrolled, ErrTransientFailure
*/
func (manager *RosterManager) Enroll(context context.Context, sessionID, participantID string, asOf time.Time) (*EnrollmentResult, error) {
	if err := validateRosterInput(sessionID, participantID); err != nil {
		return nil, err
	}

	var admitted Enrollment
	var placement Placement

	session, err := manager.commit(context, sessionID, func(session *Session) error {
		if session.HasStarted(asOf) {
			return ErrSessionAlreadyStarted
		}

		decided, err := DecidePlacement(session, participantID)
		if err != nil {
			return err
		}

		placement = decided
		admitted = session.admit(participantID, decided, asOf)
		return nil
	})
	if err != nil {
		return nil, err
	}

	record := session.Record(participantID)
	if record == nil || record.Seq != admitted.Seq {
		panic(InvariantViolation{SessionID: sessionID, Rule: "committed enrollment is missing"})
	}

	manager.log(context).InfoContext(context, "enrollment_accepted",
		slog.String("session_id", sessionID),
		slog.String("participant_id", participantID),
		slog.String("placement", string(placement)),
		slog.Int("position", record.Position),
		slog.String("actor_id", ctxutil.ActorID(context)),
	)

	manager.publisher.Publish(RosterChanged{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Change:        ChangeEnrolled,
		Placement:     placement,
		Timestamp:     asOf,
	})

	return &EnrollmentResult{Record: *record}, nil
}

/*
Cancel removes the participant and, if a basic place was freed, promotes the
reserve head in the same commit. Cancelling after the session started is allowed.

Parameters:
  - context: context.Context
  - sessionID: string
  - participantID: string
  - asOf: time.Time

Returns:
  - *CancellationResult: Vacated placement and the promoted participant, if any
  - error: ErrSessionNotFound, ErrNotEnrolled, ErrTransientFailure
*/
func (manager *RosterManager) Cancel(context context.Context, sessionID, participantID string, asOf time.Time) (*CancellationResult, error) {
	if err := validateRosterInput(sessionID, participantID); err != nil {
		return nil, err
	}

	var vacated Placement
	var promotedID string

	session, err := manager.commit(context, sessionID, func(session *Session) error {
		promotedID = ""

		vacated = session.remove(participantID)
		if vacated == PlacementNone {
			return ErrNotEnrolled
		}

		if candidate, ok := DecidePromotion(session); ok {
			session.promote(candidate)
			promotedID = candidate
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CancellationResult{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Vacated:       vacated,
	}

	manager.log(context).InfoContext(context, "enrollment_cancelled",
		slog.String("session_id", sessionID),
		slog.String("participant_id", participantID),
		slog.String("vacated", string(vacated)),
		slog.String("promoted_id", promotedID),
		slog.String("actor_id", ctxutil.ActorID(context)),
	)

	manager.publisher.Publish(RosterChanged{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Change:        ChangeCancelled,
		Placement:     vacated,
		Timestamp:     asOf,
	})

	if promotedID != "" {
		result.Promoted = session.Record(promotedID)
		manager.publisher.Publish(RosterChanged{
			SessionID:     sessionID,
			ParticipantID: promotedID,
			Change:        ChangePromoted,
			Placement:     PlacementBasic,
			Timestamp:     asOf,
		})
	}

	return result, nil
}

/*
Status reports the participant's current placement. The read is not serialized
with in-flight commits.

Parameters:
  - context: context.Context
  - sessionID: string
  - participantID: string

Returns:
  - Placement: none, basic or reserve
  - error: ErrSessionNotFound
*/
func (manager *RosterManager) Status(context context.Context, sessionID, participantID string) (Placement, error) {
	if err := validateRosterInput(sessionID, participantID); err != nil {
		return PlacementNone, err
	}

	session, err := manager.store.Load(context, sessionID)
	if err != nil {
		return PlacementNone, err
	}
	return session.PlacementOf(participantID), nil
}

/*
Roster returns the ordered listing of both collections.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *RosterView: Basic and reserve records with free slot count
  - error: ErrSessionNotFound
*/
func (manager *RosterManager) Roster(context context.Context, sessionID string) (*RosterView, error) {
	session, err := manager.store.Load(context, sessionID)
	if err != nil {
		return nil, err
	}
	return session.View(), nil
}

// # Commit Loop

// commit loads, mutates and compare-and-saves one session.
//
// apply runs against a fresh copy on every attempt and must be repeatable. A
// domain error from apply aborts without writing. Version conflicts are retried
// with jittered backoff until MaxCommitAttempts, then ErrTransientFailure. Request
// cancellation surfaces as ErrTransientFailure too.
func (manager *RosterManager) commit(context context.Context, sessionID string, apply func(*Session) error) (*Session, error) {
	unlock := manager.locks.Lock(sessionID)
	defer unlock()

	for attempt := 1; attempt <= manager.options.MaxCommitAttempts; attempt++ {
		if err := context.Err(); err != nil {
			return nil, interrupted(err)
		}

		session, err := manager.store.Load(context, sessionID)
		if err != nil {
			return nil, interrupted(err)
		}

		expectedVersion := session.Version
		if err := apply(session); err != nil {
			return nil, err
		}
		session.mustHoldInvariants()

		newVersion, err := manager.store.CompareAndSave(context, session, expectedVersion)
		if err == nil {
			session.Version = newVersion
			return session, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, interrupted(err)
		}

		if manager.options.Conflicts != nil {
			manager.options.Conflicts.Inc()
		}
		manager.log(context).DebugContext(context, "roster_commit_conflict",
			slog.String("session_id", sessionID),
			slog.Int("attempt", attempt),
			slog.Int64("expected_version", expectedVersion),
		)

		if attempt < manager.options.MaxCommitAttempts {
			if err := manager.backoff(context, attempt); err != nil {
				return nil, interrupted(err)
			}
		}
	}

	manager.log(context).WarnContext(context, "roster_commit_exhausted",
		slog.String("session_id", sessionID),
		slog.Int("attempts", manager.options.MaxCommitAttempts),
	)
	return nil, ErrTransientFailure
}

// interrupted reports a cancelled or expired request as ErrTransientFailure so
// callers still get the retry advice.
func interrupted(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrTransientFailure.WithCause(err)
	}
	return err
}

// backoff sleeps attempt*base plus up to one base of jitter.
func (manager *RosterManager) backoff(context context.Context, attempt int) error {
	base := manager.options.RetryBackoff
	if base <= 0 {
		return nil
	}

	delay := time.Duration(attempt)*base + time.Duration(rand.Int64N(int64(base)))
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-context.Done():
		return context.Err()
	}
}

// log prefers the request-scoped logger so roster events carry the request id.
func (manager *RosterManager) log(context context.Context) *slog.Logger {
	return ctxutil.Logger(context, manager.logger)
}

func validateRosterInput(sessionID, participantID string) error {
	validator := &validate.Validator{}
	validator.Identifier(FieldSessionID, sessionID).Identifier(FieldParticipantID, participantID)
	return validator.Err()
}

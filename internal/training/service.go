// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/gymroster/internal/platform/constants"
	"github.com/taibuivan/gymroster/internal/platform/ctxutil"
	"github.com/taibuivan/gymroster/internal/platform/validate"
	"github.com/taibuivan/gymroster/pkg/pagination"
	"github.com/taibuivan/gymroster/pkg/slice"
	"github.com/taibuivan/gymroster/pkg/slug"
	"github.com/taibuivan/gymroster/pkg/uuid"
)

// # Service Layer

// slugSuffixLength is taken from the random tail of the UUIDv7.
const slugSuffixLength = 8

// CreateSessionInput carries the administrative fields of a new session.
type CreateSessionInput struct {
	Title          string    `json:"title"`
	TrainingTypeID string    `json:"training_type_id"`
	TrainerIDs     []string  `json:"trainer_ids"`
	LocationID     string    `json:"location_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	Capacity       int       `json:"capacity"`
}

// Service orchestrates session administration around the roster engine.
type Service struct {
	store    SessionStore
	roster   *RosterManager
	schedule *ScheduleQuery
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new training [Service].
func NewService(store SessionStore, roster *RosterManager, schedule *ScheduleQuery, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		roster:   roster,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// # Session Management

/*
CreateSession validates and persists a session with empty rosters.

Parameters:
  - context: context.Context
  - input: CreateSessionInput

Returns:
  - *Session: The stored session
  - error: Validation failures, ErrTrainerConflict, ErrSlugTaken, persistence failures
*/
func (service *Service) CreateSession(context context.Context, input CreateSessionInput) (*Session, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.TrainerIDs = slice.CleanStrings(input.TrainerIDs)

	validator := &validate.Validator{}
	validator.
		Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, constants.MaxSessionTitleLength).
		Required(FieldTrainingTypeID, input.TrainingTypeID).
		NotEmpty(FieldTrainerIDs, input.TrainerIDs).
		Identifiers(FieldTrainerIDs, input.TrainerIDs).
		Range(FieldCapacity, input.Capacity, 1, constants.MaxSessionCapacity).
		Before(FieldStartTime, input.StartTime, input.EndTime)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	window := Window{From: input.StartTime.UTC(), To: input.EndTime.UTC()}
	if err := service.ensureTrainersFree(context, input.TrainerIDs, window, ""); err != nil {
		return nil, err
	}

	id := uuid.New()
	session := &Session{
		ID:             id,
		Title:          input.Title,
		Slug:           sessionSlug(input.Title, window.From, id),
		TrainingTypeID: input.TrainingTypeID,
		TrainerIDs:     input.TrainerIDs,
		LocationID:     input.LocationID,
		StartTime:      window.From,
		EndTime:        window.To,
		Capacity:       input.Capacity,
		Basic:          []Enrollment{},
		Reserve:        []Enrollment{},
	}

	if err := service.store.Create(context, session); err != nil {
		return nil, err
	}

	ctxutil.Logger(context, service.logger).InfoContext(context, "session_created",
		slog.String("session_id", session.ID),
		slog.String("slug", session.Slug),
		slog.Int("capacity", session.Capacity),
		slog.Time("start_time", session.StartTime),
	)

	return session, nil
}

/*
GetSession retrieves a session by its UUID or Slug identifier.

Parameters:
  - context: context.Context
  - identifier: string

Returns:
  - *Session: Hydrated session
  - error: ErrSessionNotFound if missing
*/
func (service *Service) GetSession(context context.Context, identifier string) (*Session, error) {

	// Discriminator: ID vs Slug
	// Slugs can be 36 characters long too, so the UUID is parsed rather than measured.
	if uuid.IsValid(identifier) {
		return service.store.Load(context, identifier)
	}

	return service.store.LoadBySlug(context, identifier)
}

/*
ListSessions returns one page of the sessions overlapping the window.

Parameters:
  - context: context.Context
  - window: Window
  - filter: ScheduleFilter
  - page: pagination.Params

Returns:
  - []SessionSummary: The requested page, sorted by StartTime then ID
  - int: Total matching count
  - error: ErrInvalidWindow or retrieval failures
*/
func (service *Service) ListSessions(context context.Context, window Window, filter ScheduleFilter, page pagination.Params) ([]SessionSummary, int, error) {
	summaries, err := service.schedule.FindOverlapping(context, window, filter)
	if err != nil {
		return nil, 0, err
	}

	return pagination.Slice(summaries, page), len(summaries), nil
}

/*
Reschedule moves the session to a new time window. Rosters are untouched.

Parameters:
  - context: context.Context
  - id: string (Session UUID)
  - window: Window (New start and end)

Returns:
  - *Session: The committed session
  - error: ErrInvalidWindow, validation failure for a past start, ErrSessionAlreadyStarted, ErrTrainerConflict, ErrTransientFailure
*/
func (service *Service) Reschedule(context context.Context, id string, window Window) (*Session, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	window = Window{From: window.From.UTC(), To: window.To.UTC()}

	asOf := service.now()
	validator := &validate.Validator{}
	validator.Custom(FieldStartTime, !window.From.After(asOf), "must be in the future")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	current, err := service.store.Load(context, id)
	if err != nil {
		return nil, err
	}
	if err := service.ensureTrainersFree(context, current.TrainerIDs, window, id); err != nil {
		return nil, err
	}

	session, err := service.roster.commit(context, id, func(session *Session) error {
		if session.HasStarted(asOf) {
			return ErrSessionAlreadyStarted
		}
		session.StartTime = window.From
		session.EndTime = window.To
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctxutil.Logger(context, service.logger).InfoContext(context, "session_rescheduled",
		slog.String("session_id", id),
		slog.Time("start_time", session.StartTime),
		slog.Time("end_time", session.EndTime),
	)

	return session, nil
}

// ensureTrainersFree fails with ErrTrainerConflict when a trainer is double-booked.
func (service *Service) ensureTrainersFree(context context.Context, trainerIDs []string, window Window, excludeID string) error {
	conflicts, err := service.schedule.TrainerConflicts(context, trainerIDs, window, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}

	ctxutil.Logger(context, service.logger).WarnContext(context, "trainer_double_booking_rejected",
		slog.Any("trainer_ids", trainerIDs),
		slog.Any("conflicting_session_ids", slice.Map(conflicts, func(summary SessionSummary) string { return summary.ID })),
	)
	return ErrTrainerConflict
}

// sessionSlug derives a readable identifier from the title and start minute.
// The tail of the session ID keeps sessions sharing both apart.
func sessionSlug(title string, start time.Time, id string) string {
	return slug.Join(title, start.UTC().Format("2006-01-02"), start.UTC().Format("1504"), id[len(id)-slugSuffixLength:])
}

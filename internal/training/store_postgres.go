// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/gymroster/internal/platform/database/schema"
	"github.com/taibuivan/gymroster/internal/platform/dberr"
	"github.com/taibuivan/gymroster/pkg/uuid"
)

// PostgresStore implements [SessionStore] using pgx.
//
// Both roster collections live in one JSONB column of the session row, so a
// single conditional UPDATE commits the whole roster atomically.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL backed session store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// rosterDocument is the JSONB shape of training.session.roster.
type rosterDocument struct {
	Basic   []Enrollment `json:"basic"`
	Reserve []Enrollment `json:"reserve"`
}

// sessionColumns is the select list matching scanSession.
var sessionColumns = strings.Join(schema.TrainingSession.Columns(), ", ")

// # Session Retrieval

/*
Load retrieves a single session row by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Session: Hydrated entity
  - error: ErrSessionNotFound, database retrieval failures
*/
func (repository *PostgresStore) Load(context context.Context, id string) (*Session, error) {
	if !uuid.IsValid(id) {
		return nil, ErrSessionNotFound
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		sessionColumns, schema.TrainingSession.Table, schema.TrainingSession.ID)
	return repository.loadOne(context, query, id, "get_session_by_id")
}

/*
LoadBySlug retrieves a session by its unique URL slug.

Parameters:
  - context: context.Context
  - slug: string

Returns:
  - *Session: Hydrated entity
  - error: ErrSessionNotFound, database retrieval failures
*/
func (repository *PostgresStore) LoadBySlug(context context.Context, slug string) (*Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		sessionColumns, schema.TrainingSession.Table, schema.TrainingSession.Slug)
	return repository.loadOne(context, query, slug, "get_session_by_slug")
}

func (repository *PostgresStore) loadOne(context context.Context, query, argument, action string) (*Session, error) {
	session, err := scanSession(repository.db.QueryRow(context, query, argument))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, dberr.Wrap(err, action)
	}
	return session, nil
}

/*
ListOverlapping returns sessions intersecting the window.

Description: The trainer filter uses the GIN index on trainerids and the participant
filter uses JSONB containment on either roster collection.

Parameters:
  - context: context.Context
  - window: Window
  - filter: ScheduleFilter

Returns:
  - []*Session: Matching sessions ordered by starttime, id
  - error: Database retrieval failures
*/
func (repository *PostgresStore) ListOverlapping(context context.Context, window Window, filter ScheduleFilter) ([]*Session, error) {
	query, args := overlapQuery(window, filter)

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_overlapping_sessions")
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_session")
		}
		sessions = append(sessions, session)
	}

	return sessions, dberr.Wrap(rows.Err(), "iterate_sessions")
}

// # Session Mutation

/*
Create inserts a new session row at version 1.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: ErrSlugTaken on duplicate slugs, persistence failures
*/
func (repository *PostgresStore) Create(context context.Context, session *Session) error {
	roster, err := encodeRoster(session)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, NOW(), NOW())
		RETURNING %s, %s, %s
	`, schema.TrainingSession.Table, sessionColumns,
		schema.TrainingSession.Version, schema.TrainingSession.CreatedAt, schema.TrainingSession.UpdatedAt)
	err = repository.db.QueryRow(context, query,
		session.ID, session.Title, session.Slug, session.TrainingTypeID, session.TrainerIDs, session.LocationID,
		session.StartTime, session.EndTime, session.Capacity, roster, session.NextSeq,
	).Scan(&session.Version, &session.CreatedAt, &session.UpdatedAt)

	if err = dberr.Wrap(err, "create_session"); errors.Is(err, dberr.ErrDuplicate) {
		return ErrSlugTaken
	}
	return err
}

/*
CompareAndSave updates the session only if its version is still expectedVersion.

Description: Zero affected rows means either a concurrent commit or a deleted
session; a follow-up existence check tells them apart.

Parameters:
  - context: context.Context
  - session: *Session
  - expectedVersion: int64

Returns:
  - int64: New version
  - error: ErrVersionConflict, ErrSessionNotFound, persistence failures
*/
func (repository *PostgresStore) CompareAndSave(context context.Context, session *Session, expectedVersion int64) (int64, error) {
	roster, err := encodeRoster(session)
	if err != nil {
		return 0, err
	}

	t := schema.TrainingSession
	var newVersion int64
	err = repository.db.QueryRow(context, compareAndSaveQuery,
		session.ID, expectedVersion, session.StartTime, session.EndTime, roster, session.NextSeq,
	).Scan(&newVersion, &session.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		existsQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, t.Table, t.ID)
		if err := repository.db.QueryRow(context, existsQuery, session.ID).Scan(&exists); err != nil {
			return 0, dberr.Wrap(err, "check_session_exists")
		}
		if !exists {
			return 0, ErrSessionNotFound
		}
		return 0, ErrVersionConflict
	}
	if err != nil {
		return 0, dberr.Wrap(err, "compare_and_save_session")
	}

	return newVersion, nil
}

// # Query Building

// overlapQuery builds the half-open overlap SELECT. Placeholders are numbered in
// the order the optional filters are appended.
func overlapQuery(window Window, filter ScheduleFilter) (string, []any) {
	t := schema.TrainingSession

	var queryBuilder strings.Builder
	queryBuilder.WriteString(fmt.Sprintf(`SELECT %s FROM %s WHERE %s < $1 AND %s > $2`,
		sessionColumns, t.Table, t.StartTime, t.EndTime))

	args := []any{window.To, window.From}
	argID := 3

	if filter.TrainerID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s @> ARRAY[$%d]::text[]", t.TrainerIDs, argID))
		args = append(args, filter.TrainerID)
		argID++
	}

	if filter.TrainingTypeID != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s = $%d", t.TrainingTypeID, argID))
		args = append(args, filter.TrainingTypeID)
		argID++
	}

	if filter.ParticipantID != "" {
		queryBuilder.WriteString(fmt.Sprintf(
			" AND (%[1]s @> jsonb_build_object('basic', jsonb_build_array(jsonb_build_object('participant_id', $%[2]d::text)))"+
				" OR %[1]s @> jsonb_build_object('reserve', jsonb_build_array(jsonb_build_object('participant_id', $%[2]d::text))))",
			t.Roster, argID))
		args = append(args, filter.ParticipantID)
		argID++
	}

	if filter.ExcludeSessionID != "" && uuid.IsValid(filter.ExcludeSessionID) {
		queryBuilder.WriteString(fmt.Sprintf(" AND %s <> $%d", t.ID, argID))
		args = append(args, filter.ExcludeSessionID)
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY %s ASC, %s ASC", t.StartTime, t.ID))
	return queryBuilder.String(), args
}

// compareAndSaveQuery takes id, expected version, start, end, roster, next seq.
var compareAndSaveQuery = fmt.Sprintf(`UPDATE %[1]s SET %[2]s = $3, %[3]s = $4, %[4]s = $5, %[5]s = $6, %[6]s = %[6]s + 1, %[7]s = NOW() WHERE %[8]s = $1 AND %[6]s = $2 RETURNING %[6]s, %[7]s`,
	schema.TrainingSession.Table,
	schema.TrainingSession.StartTime, schema.TrainingSession.EndTime, schema.TrainingSession.Roster, schema.TrainingSession.NextSeq,
	schema.TrainingSession.Version, schema.TrainingSession.UpdatedAt, schema.TrainingSession.ID)

// # Row Mapping

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	var roster []byte

	err := row.Scan(
		&session.ID, &session.Title, &session.Slug, &session.TrainingTypeID, &session.TrainerIDs, &session.LocationID,
		&session.StartTime, &session.EndTime, &session.Capacity, &roster, &session.NextSeq, &session.Version,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	var document rosterDocument
	if err := json.Unmarshal(roster, &document); err != nil {
		return nil, fmt.Errorf("decode roster of session %s: %w", session.ID, err)
	}
	session.Basic = document.Basic
	session.Reserve = document.Reserve

	session.StartTime = session.StartTime.UTC()
	session.EndTime = session.EndTime.UTC()
	return session, nil
}

func encodeRoster(session *Session) ([]byte, error) {
	document := rosterDocument{Basic: session.Basic, Reserve: session.Reserve}
	if document.Basic == nil {
		document.Basic = []Enrollment{}
	}
	if document.Reserve == nil {
		document.Reserve = []Enrollment{}
	}

	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("encode roster of session %s: %w", session.ID, err)
	}
	return encoded, nil
}

// compile-time check
var _ SessionStore = (*PostgresStore)(nil)

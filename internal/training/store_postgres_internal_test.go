// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestOverlapQuery numbers placeholders in filter order for every combination.
*/
func TestOverlapQuery(t *testing.T) {
	window := Window{
		From: time.Date(2030, 3, 4, 10, 0, 0, 0, time.UTC),
		To:   time.Date(2030, 3, 4, 12, 0, 0, 0, time.UTC),
	}
	excluded := "0190f1c2-0000-7000-8000-000000000000"

	participantClause := func(argID string) string {
		return "roster @> jsonb_build_object('basic', jsonb_build_array(jsonb_build_object('participant_id', " + argID + "::text)))" +
			" OR roster @> jsonb_build_object('reserve', jsonb_build_array(jsonb_build_object('participant_id', " + argID + "::text)))"
	}

	tests := []struct {
		name     string
		filter   ScheduleFilter
		clauses  []string
		wantArgs []any
	}{
		{
			name:     "Window only",
			filter:   ScheduleFilter{},
			wantArgs: []any{window.To, window.From},
		},
		{
			name:     "Trainer",
			filter:   ScheduleFilter{TrainerID: "t-1"},
			clauses:  []string{"trainerids @> ARRAY[$3]::text[]"},
			wantArgs: []any{window.To, window.From, "t-1"},
		},
		{
			name:     "Participant alone takes the first free slot",
			filter:   ScheduleFilter{ParticipantID: "m-1"},
			clauses:  []string{participantClause("$3")},
			wantArgs: []any{window.To, window.From, "m-1"},
		},
		{
			name:     "Type and exclusion",
			filter:   ScheduleFilter{TrainingTypeID: "hiit", ExcludeSessionID: excluded},
			clauses:  []string{"trainingtypeid = $3", "id <> $4"},
			wantArgs: []any{window.To, window.From, "hiit", excluded},
		},
		{
			name: "Every filter",
			filter: ScheduleFilter{
				TrainerID:        "t-1",
				TrainingTypeID:   "hiit",
				ParticipantID:    "m-1",
				ExcludeSessionID: excluded,
			},
			clauses: []string{
				"trainerids @> ARRAY[$3]::text[]",
				"trainingtypeid = $4",
				participantClause("$5"),
				"id <> $6",
			},
			wantArgs: []any{window.To, window.From, "t-1", "hiit", "m-1", excluded},
		},
		{
			name:     "Malformed exclusion is ignored",
			filter:   ScheduleFilter{ExcludeSessionID: "not-a-uuid"},
			wantArgs: []any{window.To, window.From},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := overlapQuery(window, tt.filter)

			assert.Equal(t, tt.wantArgs, args)
			assert.True(t, strings.HasPrefix(query, "SELECT "+sessionColumns+" FROM training.session WHERE starttime < $1 AND endtime > $2"))
			assert.True(t, strings.HasSuffix(query, " ORDER BY starttime ASC, id ASC"))

			// Clauses appear once each and in filter order.
			position := 0
			for _, clause := range tt.clauses {
				index := strings.Index(query[position:], clause)
				require.GreaterOrEqual(t, index, 0, "missing %q in %s", clause, query)
				position += index + len(clause)
			}

			// The participant placeholder is referenced by both roster collections.
			placeholders := len(tt.wantArgs)
			if tt.filter.ParticipantID != "" {
				placeholders++
			}
			assert.Equal(t, placeholders, strings.Count(query, "$"))
		})
	}
}

/*
TestCompareAndSaveQuery pins the conditional update and its placeholder order.
*/
func TestCompareAndSaveQuery(t *testing.T) {
	assert.Equal(t,
		"UPDATE training.session SET starttime = $3, endtime = $4, roster = $5, nextseq = $6, version = version + 1, updatedat = NOW() "+
			"WHERE id = $1 AND version = $2 RETURNING version, updatedat",
		compareAndSaveQuery)
}

/*
TestEncodeRoster matches the JSON shape the participant containment filter expects.
*/
func TestEncodeRoster(t *testing.T) {
	joined := time.Date(2030, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("Empty rosters encode as arrays", func(t *testing.T) {
		encoded, err := encodeRoster(&Session{ID: "s-1"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"basic":[],"reserve":[]}`, string(encoded))
	})

	t.Run("Participant keys", func(t *testing.T) {
		session := &Session{
			ID:      "s-1",
			Basic:   []Enrollment{{ParticipantID: "m-1", JoinedAt: joined, Seq: 1}},
			Reserve: []Enrollment{{ParticipantID: "m-2", JoinedAt: joined, Seq: 2}},
		}
		encoded, err := encodeRoster(session)
		require.NoError(t, err)

		var document map[string][]map[string]any
		require.NoError(t, json.Unmarshal(encoded, &document))
		assert.Equal(t, "m-1", document["basic"][0]["participant_id"])
		assert.Equal(t, "m-2", document["reserve"][0]["participant_id"])
	})
}

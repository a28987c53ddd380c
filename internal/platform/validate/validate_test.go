// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gymroster/internal/platform/apperr"
	"github.com/taibuivan/gymroster/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		hasError bool
	}{
		{"valid_string", "Morning HIIT", false},
		{"empty_string", "", true},
		{"whitespace_only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required("title", tt.value)

			if !tt.hasError {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
				return
			}

			ae := apperr.As(v.Err())
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			assert.Equal(t, "title", ae.Details[0].Field)
		})
	}
}

/*
TestValidator_Identifier covers the id rules applied to path and claim values.
*/
func TestValidator_Identifier(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		message string
	}{
		{"uuid", "01927f9a-7c1e-7b3a-9d4e-2f1a5b6c7d8e", ""},
		{"short_id", "m-1", ""},
		{"empty", "", "This field is required"},
		{"too_long", strings.Repeat("x", 65), "Maximum 64 characters"},
		{"inner_space", "m 1", "Must not contain whitespace"},
		{"control_char", "m\x001", "Must not contain whitespace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			err := v.Identifier("participant_id", tt.value).Err()

			if tt.message == "" {
				assert.NoError(t, err)
				return
			}

			ae := apperr.As(err)
			require.NotNil(t, ae)
			require.Len(t, ae.Details, 1)
			assert.Equal(t, tt.message, ae.Details[0].Message)
		})
	}
}

/*
TestValidator_Identifiers reports the index of each failing entry.
*/
func TestValidator_Identifiers(t *testing.T) {
	v := &validate.Validator{}
	ae := apperr.As(v.Identifiers("trainer_ids", []string{"t-1", "", "t 3"}).Err())

	require.NotNil(t, ae)
	require.Len(t, ae.Details, 2)
	assert.Equal(t, "trainer_ids[1]", ae.Details[0].Field)
	assert.Equal(t, "trainer_ids[2]", ae.Details[1].Field)
}

/*
TestValidator_Timestamp parses RFC 3339 values and keeps the default on empty input.
*/
func TestValidator_Timestamp(t *testing.T) {
	fallback := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty_keeps_default", func(t *testing.T) {
		target := fallback
		v := &validate.Validator{}
		assert.NoError(t, v.Timestamp("from", "", &target).Err())
		assert.Equal(t, fallback, target)
	})

	t.Run("offset_normalised_to_utc", func(t *testing.T) {
		target := fallback
		v := &validate.Validator{}
		require.NoError(t, v.Timestamp("from", "2026-03-01T10:00:00+02:00", &target).Err())
		assert.Equal(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), target)
	})

	t.Run("malformed", func(t *testing.T) {
		target := fallback
		v := &validate.Validator{}
		ae := apperr.As(v.Timestamp("to", "tomorrow", &target).Err())
		require.NotNil(t, ae)
		assert.Equal(t, "to", ae.Details[0].Field)
		assert.Equal(t, fallback, target)
	})
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("title", "").
		MaxLen("title", "Sunrise Yoga", 5).
		Custom("capacity", true, "Must be positive").
		Err()

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 3)
}

/*
TestValidator_SessionRules covers the time ordering, list and range rules used for sessions.
*/
func TestValidator_SessionRules(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		build    func(v *validate.Validator)
		hasError bool
	}{
		{"start_before_end", func(v *validate.Validator) { v.Before("start_time", start, start.Add(time.Hour)) }, false},
		{"start_equals_end", func(v *validate.Validator) { v.Before("start_time", start, start) }, true},
		{"trainers_present", func(v *validate.Validator) { v.NotEmpty("trainer_ids", []string{"t-1"}) }, false},
		{"trainers_missing", func(v *validate.Validator) { v.NotEmpty("trainer_ids", nil) }, true},
		{"capacity_in_range", func(v *validate.Validator) { v.Range("capacity", 12, 1, 1000) }, false},
		{"capacity_zero", func(v *validate.Validator) { v.Range("capacity", 0, 1, 1000) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			tt.build(v)
			assert.Equal(t, tt.hasError, v.HasErrors())
		})
	}
}

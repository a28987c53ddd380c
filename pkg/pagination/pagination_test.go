// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/gymroster/pkg/pagination"
)

func TestFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  pagination.Params
	}{
		{"Defaults", "", pagination.Params{Page: 1, Limit: 20}},
		{"Explicit", "page=3&limit=50", pagination.Params{Page: 3, Limit: 50}},
		{"Malformed", "page=x&limit=y", pagination.Params{Page: 1, Limit: 20}},
		{"Negative page", "page=-2", pagination.Params{Page: 1, Limit: 20}},
		{"Limit above max", "limit=500", pagination.Params{Page: 1, Limit: 20}},
		{"Huge page", "page=461168601842738792&limit=20", pagination.Params{Page: pagination.MaxPage, Limit: 20}},
		{"Page beyond int", "page=99999999999999999999", pagination.Params{Page: 1, Limit: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, pagination.FromQuery(values))
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, pagination.Slice(items, pagination.Params{Page: 1, Limit: 2}))
	assert.Equal(t, []int{5}, pagination.Slice(items, pagination.Params{Page: 3, Limit: 2}))
	assert.Empty(t, pagination.Slice(items, pagination.Params{Page: 4, Limit: 2}))
	assert.Empty(t, pagination.Slice([]int(nil), pagination.Params{Page: 1, Limit: 2}))

	// Offsets that would overflow int yield an empty page.
	assert.Empty(t, pagination.Slice(items, pagination.Params{Page: 461168601842738792, Limit: 20}))
	assert.Empty(t, pagination.Slice(items, pagination.Params{Page: math.MaxInt, Limit: pagination.MaxLimit}))
}

func TestParams_Offset(t *testing.T) {
	assert.Zero(t, pagination.Params{Page: 0, Limit: 20}.Offset())
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, math.MaxInt, pagination.Params{Page: 461168601842738792, Limit: 20}.Offset())

	capped := pagination.FromQuery(url.Values{"page": {"461168601842738792"}, "limit": {"100"}})
	assert.Positive(t, capped.Offset())
}

func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(pagination.Params{Page: 2, Limit: 2}, 5)
	assert.Equal(t, pagination.Meta{Page: 2, Limit: 2, Total: 5, TotalPages: 3}, meta)

	assert.Zero(t, pagination.NewMeta(pagination.Params{Page: 1}, 5).TotalPages)
}

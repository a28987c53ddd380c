// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination pages in-memory result sets for API list endpoints.
//
// # Overview
//
// Schedule queries return the full overlap set sorted by start time, then the
// list endpoints cut one page out of it with [Slice] and describe it with [Meta].
package pagination

import (
	"math"
	"net/url"
	"strconv"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 20
	// MaxLimit caps the page size.
	MaxLimit = 100
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
	// MaxPage keeps (Page-1)*MaxLimit within int.
	MaxPage = math.MaxInt / MaxLimit
)

// Params holds a 1-indexed page number and a page size.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the index of the first item on the page. It saturates at
// [math.MaxInt] instead of overflowing.
func (params Params) Offset() int {
	if params.Page <= 1 || params.Limit <= 0 {
		return 0
	}
	if params.Page-1 > math.MaxInt/params.Limit {
		return math.MaxInt
	}
	return (params.Page - 1) * params.Limit
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta describes the page of params within total items.
func NewMeta(params Params, total int) Meta {
	totalPages := 0
	if params.Limit > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}

	return Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Slice returns the items on the requested page. Pages past the end are empty.
func Slice[T any](items []T, params Params) []T {
	start := min(params.Offset(), len(items))
	end := start + min(max(params.Limit, 0), len(items)-start)
	return items[start:end]
}

// FromQuery reads "page" and "limit". Missing, malformed or out-of-range values
// fall back to [DefaultPage] and [DefaultLimit]; pages beyond [MaxPage] are capped.
func FromQuery(values url.Values) Params {
	page := intOrDefault(values.Get("page"), DefaultPage)
	if page < 1 {
		page = DefaultPage
	}
	page = min(page, MaxPage)

	limit := intOrDefault(values.Get("limit"), DefaultLimit)
	if limit < 1 || limit > MaxLimit {
		limit = DefaultLimit
	}

	return Params{Page: page, Limit: limit}
}

func intOrDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-valued URL query parameters.
package query

import (
	"strings"

	"github.com/taibuivan/gymroster/pkg/slice"
)

// StringSlice splits a comma-separated query value into trimmed entries.
// Empty entries and repeats are dropped; first-seen order is kept.
//
// # Example
//
//	StringSlice(" t-1, t-2,,t-1") // []string{"t-1", "t-2"}
func StringSlice(value string) []string {
	if value == "" {
		return nil
	}
	return slice.CleanStrings(strings.Split(value, ","))
}

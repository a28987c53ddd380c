// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates ASCII URL slugs from arbitrary Unicode strings.
//
// # Usage
//
// Session slugs combine the title with the start date and minute, for example
// "morning-hiit-2030-03-01-0900", so the same class can recur without clashing.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// From converts s into a lowercase ASCII slug.
//
// # Transformation Pipeline
//
//  1. NFD normalization, then combining marks are removed (é becomes e).
//  2. ASCII letters and digits are kept, lowercased.
//  3. Every other run of characters becomes a single hyphen.
//  4. Leading and trailing hyphens are trimmed.
func From(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, transform.RemoveFunc(isMark)), s)
	if err != nil {
		stripped = s
	}

	var builder strings.Builder
	builder.Grow(len(stripped))

	pendingHyphen := false
	for _, r := range strings.ToLower(stripped) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && builder.Len() > 0 {
				builder.WriteByte('-')
			}
			pendingHyphen = false
			builder.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	return builder.String()
}

// Join slugs every part and joins the non-empty results with hyphens.
func Join(parts ...string) string {
	slugs := make([]string, 0, len(parts))
	for _, part := range parts {
		if value := From(part); value != "" {
			slugs = append(slugs, value)
		}
	}
	return strings.Join(slugs, "-")
}

func isMark(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

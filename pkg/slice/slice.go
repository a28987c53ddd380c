// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice complements the standard [slices] package with the small generic
helpers used to normalize identifier lists (trainer ids, query values).
*/
package slice

import "strings"

// Map returns transform applied to every element. A nil input yields nil.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for index, value := range input {
		result[index] = transform(value)
	}
	return result
}

// Filter keeps the elements for which keep returns true, in order.
func Filter[T any](input []T, keep func(T) bool) []T {
	var result []T
	for _, value := range input {
		if keep(value) {
			result = append(result, value)
		}
	}
	return result
}

// Unique drops repeated elements, keeping the first occurrence of each.
func Unique[T comparable](input []T) []T {
	if len(input) == 0 {
		return nil
	}

	seen := make(map[T]struct{}, len(input))
	result := make([]T, 0, len(input))
	for _, value := range input {
		if _, duplicate := seen[value]; duplicate {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

// CleanStrings trims every entry, then drops blanks and repeats.
//
// # Example
//
//	CleanStrings([]string{" t-1", "", "t-2", "t-1 "}) // []string{"t-1", "t-2"}
func CleanStrings(input []string) []string {
	trimmed := Map(input, strings.TrimSpace)
	return Unique(Filter(trimmed, func(value string) bool { return value != "" }))
}

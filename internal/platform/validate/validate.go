// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Services validate domain input with it; handlers only use it for transport
// concerns such as query parameter parsing. Storage never validates.
package validate

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/taibuivan/gymroster/internal/platform/apperr"
	"github.com/taibuivan/gymroster/internal/platform/constants"
)

// ErrInvalidJSON is returned when the request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// # Scalar Rules

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "This field is required")
	}
	return v
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		v.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return v
}

// Range fails if the value is outside the [min, max] range (inclusive).
func (v *Validator) Range(field string, value, min, max int) *Validator {
	if value < min || value > max {
		v.add(field, fmt.Sprintf("Must be between %d and %d", min, max))
	}
	return v
}

// Identifier fails on empty ids, ids longer than [constants.MaxIdentifierLength]
// and ids containing whitespace or control characters.
//
// Session, participant and trainer ids come from path segments and token
// claims, so only one failure is reported per field.
func (v *Validator) Identifier(field, value string) *Validator {
	switch {
	case value == "":
		v.add(field, "This field is required")
	case utf8.RuneCountInString(value) > constants.MaxIdentifierLength:
		v.add(field, fmt.Sprintf("Maximum %d characters", constants.MaxIdentifierLength))
	case strings.IndexFunc(value, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		v.add(field, "Must not contain whitespace")
	}
	return v
}

// # Collection Rules

// NotEmpty fails if the list has no entries.
func (v *Validator) NotEmpty(field string, values []string) *Validator {
	if len(values) == 0 {
		v.add(field, "At least one value is required")
	}
	return v
}

// Identifiers applies [Validator.Identifier] to every entry, reporting the
// offending index as "field[i]".
func (v *Validator) Identifiers(field string, values []string) *Validator {
	for index, value := range values {
		v.Identifier(fmt.Sprintf("%s[%d]", field, index), value)
	}
	return v
}

// # Time Rules

// Before fails unless start is strictly earlier than end.
func (v *Validator) Before(field string, start, end time.Time) *Validator {
	if !start.Before(end) {
		v.add(field, "Must be earlier than the end time")
	}
	return v
}

// Timestamp parses an RFC 3339 value into target. Empty values leave target
// untouched so callers can pre-fill a default.
func (v *Validator) Timestamp(field, raw string, target *time.Time) *Validator {
	if raw == "" {
		return v
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		v.add(field, "Must be an RFC 3339 timestamp")
		return v
	}
	*target = parsed.UTC()
	return v
}

// Custom adds a failure with a custom message if the condition is true.
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// # Output

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method; call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// HasErrors reports whether any validation rule has failed so far.
func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
}

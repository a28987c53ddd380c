// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the single error type that leaves the gymroster service layer.

Architecture:

  - AppError: machine-readable code, client-safe message, HTTP status and an
    optional server-side cause.
  - Identity: two AppErrors with the same Code match under [errors.Is], so domain
    packages declare sentinel values with [New] and still attach a cause per call.
  - Retry hints: errors that clients should retry carry RetryAfter, which the
    response writer turns into a Retry-After header.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// # Codes

// Platform-level codes. Domain packages define their own next to their sentinels.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeValidation         = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// AppError is the canonical error type for the gymroster API.
//
// # Security
//
// Cause is for server-side logging only and is never serialized.
type AppError struct {
	Code       string        `json:"code"`
	Message    string        `json:"error"`
	HTTPStatus int           `json:"-"`
	Cause      error         `json:"-"`
	RetryAfter time.Duration `json:"-"`
	Details    []FieldError  `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an [*AppError] carrying the same Code.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	return ok && e.Code == other.Code
}

// WithCause returns a copy of e carrying cause for server-side logging.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// WithRetryAfter returns a copy of e advising clients to retry after delay.
func (e *AppError) WithRetryAfter(delay time.Duration) *AppError {
	clone := *e
	clone.RetryAfter = delay
	return &clone
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, or 0 when unset.
func (e *AppError) RetryAfterSeconds() int {
	if e.RetryAfter <= 0 {
		return 0
	}
	return int((e.RetryAfter + time.Second - 1) / time.Second)
}

// # Construction

// New creates an [AppError] with an explicit code and status.
//
// Domain packages use it to declare their own sentinel errors:
//
//	var ErrNotEnrolled = apperr.New(http.StatusConflict, "NOT_ENROLLED", "Participant is not enrolled")
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NotFound creates a 404 for a named resource, e.g. NotFound("Session").
func NotFound(resource string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, resource+" not found")
}

func Unauthorized(msg string) *AppError {
	return New(http.StatusUnauthorized, CodeUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return New(http.StatusForbidden, CodeForbidden, msg)
}

// Conflict creates a 409 for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return New(http.StatusConflict, CodeConflict, msg)
}

// ValidationError creates a 400 with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	appError := New(http.StatusBadRequest, CodeValidation, msg)
	appError.Details = details
	return appError
}

// RateLimited creates a 429 that asks the client to wait retryAfter.
func RateLimited(retryAfter time.Duration) *AppError {
	appError := New(http.StatusTooManyRequests, CodeRateLimited, "")
	appError = appError.WithRetryAfter(retryAfter)
	appError.Message = fmt.Sprintf("Too many requests. Try again in %ds.", appError.RetryAfterSeconds())
	return appError
}

// Internal creates a 500 wrapping an unexpected server-side error.
func Internal(cause error) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred").WithCause(cause)
}

// ServiceUnavailable creates a 503 for disabled features or exhausted retries.
func ServiceUnavailable(msg string) *AppError {
	return New(http.StatusServiceUnavailable, CodeServiceUnavailable, msg)
}

// # Helpers

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}

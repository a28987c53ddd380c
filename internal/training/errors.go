// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"errors"
	"net/http"
	"time"

	"github.com/taibuivan/gymroster/internal/platform/apperr"
)

// # Domain Errors

// Sentinels are matched by code, so errors.Is keeps working after WithCause.
var (
	ErrSessionNotFound       = apperr.New(http.StatusNotFound, "SESSION_NOT_FOUND", "Training session not found")
	ErrSessionAlreadyStarted = apperr.New(http.StatusUnprocessableEntity, "SESSION_ALREADY_STARTED", "Training session has already started")
	ErrAlreadyEnrolled       = apperr.New(http.StatusConflict, "ALREADY_ENROLLED", "Participant is already enrolled in this session")
	ErrNotEnrolled           = apperr.New(http.StatusConflict, "NOT_ENROLLED", "Participant is not enrolled in this session")
	ErrTrainerConflict       = apperr.New(http.StatusConflict, "TRAINER_CONFLICT", "A trainer is already booked in an overlapping session")
	ErrSlugTaken             = apperr.New(http.StatusConflict, "SESSION_SLUG_TAKEN", "A session with the same slug already exists")
	ErrTransientFailure      = apperr.New(http.StatusServiceUnavailable, "TRANSIENT_FAILURE", "The roster is busy, please retry").WithRetryAfter(time.Second)
	ErrInvalidWindow         = apperr.New(http.StatusBadRequest, "INVALID_WINDOW", "Time window must start before it ends")
)

// ErrVersionConflict is returned by [SessionStore.CompareAndSave] when the stored
// version moved on. It never leaves the package.
var ErrVersionConflict = errors.New("training: session version conflict")

var (
	errActingForOthers = apperr.Forbidden("Only trainers may manage other participants' enrollments")
	errFeedDisabled    = apperr.ServiceUnavailable("Live roster feed is disabled")
)

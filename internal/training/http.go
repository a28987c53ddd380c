// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gymroster/internal/platform/middleware"
	requestutil "github.com/taibuivan/gymroster/internal/platform/request"
	"github.com/taibuivan/gymroster/internal/platform/respond"
	"github.com/taibuivan/gymroster/internal/platform/sec"
	"github.com/taibuivan/gymroster/internal/platform/validate"
	"github.com/taibuivan/gymroster/pkg/pagination"
	"github.com/taibuivan/gymroster/pkg/query"
)

// defaultHorizon is the list window used when the client omits "to".
const defaultHorizon = 7 * 24 * time.Hour

// # Handler Implementation

// Handler implements the HTTP layer for sessions, rosters and schedules.
type Handler struct {
	service  *Service
	roster   *RosterManager
	schedule *ScheduleQuery
	feed     *FeedHub
	now      func() time.Time
}

// NewHandler constructs a new training [Handler]. feed may be nil to disable the
// live roster endpoint.
func NewHandler(service *Service, roster *RosterManager, schedule *ScheduleQuery, feed *FeedHub) *Handler {
	return &Handler{
		service:  service,
		roster:   roster,
		schedule: schedule,
		feed:     feed,
		now:      time.Now,
	}
}

// Shutdown disconnects live feed subscribers. It is safe to call when the feed
// is disabled.
func (handler *Handler) Shutdown() {
	if handler.feed != nil {
		handler.feed.Close()
	}
}

// SessionDetail is the single-session representation.
type SessionDetail struct {
	*Session
	BasicCount   int `json:"basic_count"`
	ReserveCount int `json:"reserve_count"`
	FreeSlots    int `json:"free_slots"`
}

// EnrollmentStatus is the response of the status endpoint.
type EnrollmentStatus struct {
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	Placement     Placement `json:"placement"`
}

type enrollRequest struct {
	ParticipantID string `json:"participant_id"`
}

type rescheduleRequest struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// SessionRoutes returns a [chi.Router] configured with session endpoints.
//
// Mount it behind [middleware.Authenticate] so role checks can see the claims.
func (handler *Handler) SessionRoutes() chi.Router {
	router := chi.NewRouter()

	// ## Public Discovery
	router.Get("/", handler.listSessions)
	router.Get("/{identifier}", handler.getSession)
	router.Get("/{id}/roster", handler.getRoster)
	router.Get("/{id}/enrollments/{participantID}", handler.getStatus)

	// ## Member Actions
	router.Group(func(members chi.Router) {
		members.Use(middleware.RequireAuth)
		members.Post("/{id}/enrollments", handler.enroll)
		members.Delete("/{id}/enrollments/{participantID}", handler.cancel)
	})

	// ## Trainer Administration
	router.Group(func(trainers chi.Router) {
		trainers.Use(middleware.RequireRole(sec.RoleTrainer))
		trainers.Post("/", handler.createSession)
		trainers.Get("/conflicts", handler.listTrainerConflicts)
		trainers.Patch("/{id}/schedule", handler.reschedule)
		trainers.Get("/{id}/feed", handler.streamFeed)
	})

	return router
}

// ParticipantRoutes returns a [chi.Router] for participant-centric queries.
func (handler *Handler) ParticipantRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{participantID}/sessions", handler.listParticipantSessions)
	return router
}

// # Session Endpoints

/*
GET /api/v1/sessions.

Description: Lists sessions overlapping a time window, sorted by start time.

Request:
  - from, to: RFC 3339 instants (default: now and now + 7 days)
  - trainer, participant, type: optional filters
  - page, limit: int

Response:
  - 200: []SessionSummary: Paginated list
  - 400: INVALID_WINDOW / VALIDATION_ERROR: Malformed window
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	window, err := handler.parseWindow(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	queryParams := request.URL.Query()
	filter := ScheduleFilter{
		TrainerID:      queryParams.Get("trainer"),
		ParticipantID:  queryParams.Get("participant"),
		TrainingTypeID: queryParams.Get("type"),
	}

	paginationParams := pagination.FromQuery(queryParams)
	summaries, total, err := handler.service.ListSessions(request.Context(), window, filter, paginationParams)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, summaries, pagination.NewMeta(paginationParams, total))
}

/*
GET /api/v1/sessions/{identifier}.

Description: Retrieves a session using its UUID or slug.

Response:
  - 200: SessionDetail: Success
  - 404: SESSION_NOT_FOUND
*/
func (handler *Handler) getSession(writer http.ResponseWriter, request *http.Request) {
	identifier := requestutil.Param(request, "identifier")

	session, err := handler.service.GetSession(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detailOf(session))
}

/*
POST /api/v1/sessions.

Description: Schedules a new session with empty rosters. Trainer role required.

Request (Body):
  - CreateSessionInput JSON object

Response:
  - 201: SessionDetail: Created object
  - 400: VALIDATION_ERROR: Invalid input data
  - 403: FORBIDDEN: Insufficient role
  - 409: TRAINER_CONFLICT / SESSION_SLUG_TAKEN
*/
func (handler *Handler) createSession(writer http.ResponseWriter, request *http.Request) {
	var input CreateSessionInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.CreateSession(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, detailOf(session))
}

/*
PATCH /api/v1/sessions/{id}/schedule.

Description: Moves a session that has not started yet. Trainer role required.

Request (Body):
  - { "start_time": RFC 3339, "end_time": RFC 3339 }

Response:
  - 200: SessionDetail: Updated entity
  - 400: INVALID_WINDOW, VALIDATION_ERROR (start not in the future)
  - 404: SESSION_NOT_FOUND
  - 409: TRAINER_CONFLICT
  - 422: SESSION_ALREADY_STARTED
  - 503: TRANSIENT_FAILURE
*/
func (handler *Handler) reschedule(writer http.ResponseWriter, request *http.Request) {
	sessionID := requestutil.Param(request, "id")

	var input rescheduleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.service.Reschedule(request.Context(), sessionID, Window{From: input.StartTime, To: input.EndTime})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detailOf(session))
}

/*
GET /api/v1/sessions/conflicts.

Description: Lists sessions that would double-book the given trainers in the
window. Trainer role required.

Request:
  - trainers: comma-separated trainer IDs (required)
  - from, to: RFC 3339 instants
  - exclude: session ID to ignore, typically the one being rescheduled

Response:
  - 200: []SessionSummary: Conflicting sessions, empty when the trainers are free
  - 400: VALIDATION_ERROR / INVALID_WINDOW
*/
func (handler *Handler) listTrainerConflicts(writer http.ResponseWriter, request *http.Request) {
	queryParams := request.URL.Query()
	trainerIDs := query.StringSlice(queryParams.Get("trainers"))

	validator := &validate.Validator{}
	if err := validator.NotEmpty("trainers", trainerIDs).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	window, err := handler.parseWindow(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	conflicts, err := handler.schedule.TrainerConflicts(request.Context(), trainerIDs, window, queryParams.Get("exclude"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, conflicts)
}

// # Roster Endpoints

/*
GET /api/v1/sessions/{id}/roster.

Response:
  - 200: RosterView: Basic and reserve listings in order
  - 404: SESSION_NOT_FOUND
*/
func (handler *Handler) getRoster(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.roster.Roster(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}

/*
POST /api/v1/sessions/{id}/enrollments.

Description: Enrolls the caller, or the given participant when the caller is a trainer.

Request (Body, optional):
  - { "participant_id": "string" }

Response:
  - 201: EnrollmentResult: Placement and position
  - 403: FORBIDDEN: Enrolling somebody else without trainer role
  - 404: SESSION_NOT_FOUND
  - 409: ALREADY_ENROLLED
  - 422: SESSION_ALREADY_STARTED
  - 503: TRANSIENT_FAILURE
*/
func (handler *Handler) enroll(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input enrollRequest
	if err := requestutil.DecodeOptionalJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	participantID, err := actingFor(claims, input.ParticipantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.roster.Enroll(request.Context(), requestutil.Param(request, "id"), participantID, handler.now())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, result)
}

/*
DELETE /api/v1/sessions/{id}/enrollments/{participantID}.

Description: Cancels an enrollment. Allowed after the session started.

Response:
  - 200: CancellationResult: Vacated placement and promotion
  - 403: FORBIDDEN: Cancelling somebody else without trainer role
  - 404: SESSION_NOT_FOUND
  - 409: NOT_ENROLLED
  - 503: TRANSIENT_FAILURE
*/
func (handler *Handler) cancel(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	participantID, err := actingFor(claims, requestutil.Param(request, "participantID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.roster.Cancel(request.Context(), requestutil.Param(request, "id"), participantID, handler.now())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
GET /api/v1/sessions/{id}/enrollments/{participantID}.

Response:
  - 200: EnrollmentStatus: none, basic or reserve
  - 404: SESSION_NOT_FOUND
*/
func (handler *Handler) getStatus(writer http.ResponseWriter, request *http.Request) {
	sessionID := requestutil.Param(request, "id")
	participantID := requestutil.Param(request, "participantID")

	placement, err := handler.roster.Status(request.Context(), sessionID, participantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, EnrollmentStatus{SessionID: sessionID, ParticipantID: participantID, Placement: placement})
}

/*
GET /api/v1/sessions/{id}/feed.

Description: Upgrades to a WebSocket streaming RosterChanged frames for the session.

Response:
  - 101: Switching Protocols
  - 404: SESSION_NOT_FOUND
  - 503: SERVICE_UNAVAILABLE: Live feed disabled
*/
func (handler *Handler) streamFeed(writer http.ResponseWriter, request *http.Request) {
	if handler.feed == nil {
		respond.Error(writer, request, errFeedDisabled)
		return
	}

	session, err := handler.service.GetSession(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	_ = handler.feed.Serve(writer, request, session.ID)
}

// # Participant Endpoints

/*
GET /api/v1/participants/{participantID}/sessions.

Description: Lists the sessions in the window where the participant holds a place.

Request:
  - from, to: RFC 3339 instants

Response:
  - 200: []SessionSummary: Each with the participant's placement
  - 400: INVALID_WINDOW
*/
func (handler *Handler) listParticipantSessions(writer http.ResponseWriter, request *http.Request) {
	window, err := handler.parseWindow(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	summaries, err := handler.schedule.FindForParticipant(request.Context(), requestutil.Param(request, "participantID"), window)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, summaries)
}

// # Helpers

// parseWindow reads "from" and "to" as RFC 3339 instants.
func (handler *Handler) parseWindow(request *http.Request) (Window, error) {
	queryParams := request.URL.Query()
	window := Window{From: handler.now().UTC()}

	validator := &validate.Validator{}
	validator.Timestamp("from", queryParams.Get("from"), &window.From)

	window.To = window.From.Add(defaultHorizon)
	validator.Timestamp("to", queryParams.Get("to"), &window.To)

	if err := validator.Err(); err != nil {
		return Window{}, err
	}
	return window, window.Validate()
}

// actingFor resolves the participant a request acts on behalf of.
func actingFor(claims *sec.AuthClaims, requested string) (string, error) {
	if requested == "" || requested == claims.UserID {
		return claims.UserID, nil
	}
	if !claims.RoleOf().AtLeast(sec.RoleTrainer) {
		return "", errActingForOthers
	}
	return requested, nil
}

func detailOf(session *Session) SessionDetail {
	return SessionDetail{
		Session:      session,
		BasicCount:   len(session.Basic),
		ReserveCount: len(session.Reserve),
		FreeSlots:    session.FreeSlots(),
	}
}

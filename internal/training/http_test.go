// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gymroster/internal/platform/ctxutil"
	"github.com/taibuivan/gymroster/internal/platform/sec"
	"github.com/taibuivan/gymroster/internal/training"
)

// testUserHeader carries "user-id:role" and stands in for a verified JWT.
const testUserHeader = "X-Test-User"

func fakeAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if raw := request.Header.Get(testUserHeader); raw != "" {
			userID, role, _ := strings.Cut(raw, ":")
			claims := &sec.AuthClaims{UserID: userID, Username: userID, Role: role}
			request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
		}
		next.ServeHTTP(writer, request)
	})
}

type apiHarness struct {
	*fixture
	router chi.Router
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	f := newFixture(t)
	handler := training.NewHandler(f.service, f.roster, f.schedule, nil)

	router := chi.NewRouter()
	router.Use(fakeAuthenticate)
	router.Mount("/sessions", handler.SessionRoutes())
	router.Mount("/participants", handler.ParticipantRoutes())
	return &apiHarness{fixture: f, router: router}
}

func (harness *apiHarness) do(t *testing.T, method, target, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	request := httptest.NewRequest(method, target, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		request.Header.Set(testUserHeader, user)
	}

	recorder := httptest.NewRecorder()
	harness.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeData(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	envelope := struct {
		Code string `json:"code"`
	}{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

/*
TestHTTP_CreateSession covers the trainer-only create endpoint.
*/
func TestHTTP_CreateSession(t *testing.T) {
	harness := newAPIHarness(t)
	input := sessionInput("Lunch Spin", baseTime, time.Hour, 2, "t-1")

	response := harness.do(t, http.MethodPost, "/sessions/", "", input)
	assert.Equal(t, http.StatusUnauthorized, response.Code)

	response = harness.do(t, http.MethodPost, "/sessions/", "m-1:member", input)
	assert.Equal(t, http.StatusForbidden, response.Code)

	response = harness.do(t, http.MethodPost, "/sessions/", "t-1:trainer", input)
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	var detail training.SessionDetail
	decodeData(t, response, &detail)
	assert.Equal(t, "Lunch Spin", detail.Title)
	assert.Equal(t, 2, detail.FreeSlots)

	response = harness.do(t, http.MethodPost, "/sessions/", "t-1:trainer", sessionInput("Clash", baseTime, time.Hour, 2, "t-1"))
	assert.Equal(t, http.StatusConflict, response.Code)
	assert.Equal(t, "TRAINER_CONFLICT", errorCode(t, response))

	invalid := input
	invalid.Capacity = 0
	response = harness.do(t, http.MethodPost, "/sessions/", "a-1:admin", invalid)
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, response))
}

/*
TestHTTP_EnrollmentLifecycle walks enroll, status, roster and cancel through the router.
*/
func TestHTTP_EnrollmentLifecycle(t *testing.T) {
	harness := newAPIHarness(t)
	session := harness.createSession(t, sessionInput("Rowing", baseTime, time.Hour, 1))
	base := "/sessions/" + session.ID

	response := harness.do(t, http.MethodPost, base+"/enrollments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, response.Code)

	response = harness.do(t, http.MethodPost, base+"/enrollments", "m-1:member", nil)
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	var enrolled training.EnrollmentResult
	decodeData(t, response, &enrolled)
	assert.Equal(t, training.PlacementBasic, enrolled.Record.Placement)

	response = harness.do(t, http.MethodPost, base+"/enrollments", "m-1:member", nil)
	assert.Equal(t, http.StatusConflict, response.Code)
	assert.Equal(t, "ALREADY_ENROLLED", errorCode(t, response))

	response = harness.do(t, http.MethodPost, base+"/enrollments", "m-1:member", map[string]string{"participant_id": "m-2"})
	assert.Equal(t, http.StatusForbidden, response.Code)

	response = harness.do(t, http.MethodPost, base+"/enrollments", "t-9:trainer", map[string]string{"participant_id": "m-2"})
	require.Equal(t, http.StatusCreated, response.Code)
	decodeData(t, response, &enrolled)
	assert.Equal(t, training.PlacementReserve, enrolled.Record.Placement)
	assert.Equal(t, 1, enrolled.Record.Position)

	response = harness.do(t, http.MethodGet, base+"/enrollments/m-2", "", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var status training.EnrollmentStatus
	decodeData(t, response, &status)
	assert.Equal(t, training.PlacementReserve, status.Placement)

	response = harness.do(t, http.MethodDelete, base+"/enrollments/m-1", "m-2:member", nil)
	assert.Equal(t, http.StatusForbidden, response.Code)

	response = harness.do(t, http.MethodDelete, base+"/enrollments/m-1", "m-1:member", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var cancelled training.CancellationResult
	decodeData(t, response, &cancelled)
	assert.Equal(t, training.PlacementBasic, cancelled.Vacated)
	require.NotNil(t, cancelled.Promoted)
	assert.Equal(t, "m-2", cancelled.Promoted.ParticipantID)

	response = harness.do(t, http.MethodDelete, base+"/enrollments/m-1", "m-1:member", nil)
	assert.Equal(t, http.StatusConflict, response.Code)
	assert.Equal(t, "NOT_ENROLLED", errorCode(t, response))

	response = harness.do(t, http.MethodGet, base+"/roster", "", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var view training.RosterView
	decodeData(t, response, &view)
	assert.Equal(t, []string{"m-2"}, participantIDs(view.Basic))
	assert.Empty(t, view.Reserve)
}

/*
TestHTTP_EnrollAfterStart maps the closed session to 422.
*/
func TestHTTP_EnrollAfterStart(t *testing.T) {
	harness := newAPIHarness(t)
	started := time.Now().UTC().Add(-10 * time.Minute).Truncate(time.Minute)
	session := harness.createSession(t, sessionInput("Running", started, time.Hour, 3))

	response := harness.do(t, http.MethodPost, "/sessions/"+session.ID+"/enrollments", "m-1:member", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, response.Code)
	assert.Equal(t, "SESSION_ALREADY_STARTED", errorCode(t, response))
}

/*
TestHTTP_GetSession resolves slugs and reports missing sessions.
*/
func TestHTTP_GetSession(t *testing.T) {
	harness := newAPIHarness(t)
	session := harness.createSession(t, sessionInput("Barre", baseTime, time.Hour, 3))

	response := harness.do(t, http.MethodGet, "/sessions/"+session.Slug, "", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var detail training.SessionDetail
	decodeData(t, response, &detail)
	assert.Equal(t, session.ID, detail.ID)

	response = harness.do(t, http.MethodGet, "/sessions/unknown-slug", "", nil)
	assert.Equal(t, http.StatusNotFound, response.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, response))

	response = harness.do(t, http.MethodGet, "/sessions/"+session.ID+"/feed", "t-1:trainer", nil)
	assert.Equal(t, http.StatusServiceUnavailable, response.Code)
}

/*
TestHTTP_ListSessions checks the window parameters and participant listing.
*/
func TestHTTP_ListSessions(t *testing.T) {
	harness := newAPIHarness(t)
	first := harness.createSession(t, sessionInput("Early", baseTime, time.Hour, 3))
	harness.createSession(t, sessionInput("Later", baseTime.Add(2*time.Hour), time.Hour, 3))

	_, err := harness.roster.Enroll(context.Background(), first.ID, "m-1", beforeStart(first))
	require.NoError(t, err)

	query := "?from=" + baseTime.Format(time.RFC3339) + "&to=" + baseTime.Add(4*time.Hour).Format(time.RFC3339)

	response := harness.do(t, http.MethodGet, "/sessions/"+query+"&limit=1", "", nil)
	require.Equal(t, http.StatusOK, response.Code)
	page := struct {
		Data []training.SessionSummary `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}{}
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, 2, page.Meta.Total)
	assert.Equal(t, first.ID, page.Data[0].ID)

	response = harness.do(t, http.MethodGet, "/sessions/"+query+"&page=461168601842738792", "", nil)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &page))
	assert.Empty(t, page.Data)
	assert.Equal(t, 2, page.Meta.Total)

	response = harness.do(t, http.MethodGet, "/participants/m-1/sessions"+query, "", nil)
	require.Equal(t, http.StatusOK, response.Code)
	var summaries []training.SessionSummary
	decodeData(t, response, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, training.PlacementBasic, summaries[0].Placement)

	response = harness.do(t, http.MethodGet, "/sessions/?from=yesterday", "", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)

	inverted := "?from=" + baseTime.Format(time.RFC3339) + "&to=" + baseTime.Add(-time.Hour).Format(time.RFC3339)
	response = harness.do(t, http.MethodGet, "/sessions/"+inverted, "", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Equal(t, "INVALID_WINDOW", errorCode(t, response))
}

/*
TestHTTP_Reschedule covers the trainer-only schedule change.
*/
func TestHTTP_Reschedule(t *testing.T) {
	harness := newAPIHarness(t)
	session := harness.createSession(t, sessionInput("Move Me", baseTime, time.Hour, 3))
	body := map[string]time.Time{"start_time": baseTime.Add(time.Hour), "end_time": baseTime.Add(2 * time.Hour)}

	response := harness.do(t, http.MethodPatch, "/sessions/"+session.ID+"/schedule", "m-1:member", body)
	assert.Equal(t, http.StatusForbidden, response.Code)

	response = harness.do(t, http.MethodPatch, "/sessions/"+session.ID+"/schedule", "t-1:trainer", body)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())
	var detail training.SessionDetail
	decodeData(t, response, &detail)
	assert.True(t, detail.StartTime.Equal(baseTime.Add(time.Hour)))

	past := time.Now().UTC().Add(-time.Hour)
	body = map[string]time.Time{"start_time": past, "end_time": past.Add(time.Hour)}
	response = harness.do(t, http.MethodPatch, "/sessions/"+session.ID+"/schedule", "t-1:trainer", body)
	assert.Equal(t, http.StatusBadRequest, response.Code)
	assert.Contains(t, response.Body.String(), `"field":"start_time"`)
}

/*
TestHTTP_TrainerConflicts reports double-bookings for a comma-separated trainer list.
*/
func TestHTTP_TrainerConflicts(t *testing.T) {
	harness := newAPIHarness(t)
	busy := harness.createSession(t, sessionInput("Busy", baseTime, time.Hour, 3, "t-1"))

	window := "&from=" + baseTime.Add(30*time.Minute).Format(time.RFC3339) + "&to=" + baseTime.Add(2*time.Hour).Format(time.RFC3339)

	response := harness.do(t, http.MethodGet, "/sessions/conflicts?trainers=t-2,+t-1"+window, "t-2:trainer", nil)
	require.Equal(t, http.StatusOK, response.Code, response.Body.String())
	var conflicts []training.SessionSummary
	decodeData(t, response, &conflicts)
	require.Len(t, conflicts, 1)
	assert.Equal(t, busy.ID, conflicts[0].ID)

	response = harness.do(t, http.MethodGet, "/sessions/conflicts?trainers=t-1&exclude="+busy.ID+window, "t-2:trainer", nil)
	require.Equal(t, http.StatusOK, response.Code)
	decodeData(t, response, &conflicts)
	assert.Empty(t, conflicts)

	response = harness.do(t, http.MethodGet, "/sessions/conflicts?trainers=,"+window, "t-2:trainer", nil)
	assert.Equal(t, http.StatusBadRequest, response.Code)

	response = harness.do(t, http.MethodGet, "/sessions/conflicts?trainers=t-1"+window, "m-1:member", nil)
	assert.Equal(t, http.StatusForbidden, response.Code)
}

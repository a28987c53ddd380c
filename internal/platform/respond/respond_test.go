// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gymroster/internal/platform/apperr"
	"github.com/taibuivan/gymroster/internal/platform/respond"
	"github.com/taibuivan/gymroster/pkg/pagination"
)

/*
TestError covers the error envelope for typed, retryable and untyped errors.
*/
func TestError(t *testing.T) {
	busy := apperr.New(http.StatusServiceUnavailable, "TRANSIENT_FAILURE", "The roster is busy, please retry")

	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{"app_error", apperr.NotFound("Session"), http.StatusNotFound, apperr.CodeNotFound, ""},
		{"retryable", busy.WithRetryAfter(1200 * time.Millisecond), http.StatusServiceUnavailable, "TRANSIENT_FAILURE", "2"},
		{"plain_error", errors.New("pq: connection reset"), http.StatusInternalServerError, apperr.CodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respond.Error(recorder, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.retryAfter, recorder.Header().Get("Retry-After"))

			var envelope respond.ErrorEnvelope
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
			assert.Equal(t, tt.code, envelope.Code)
			assert.NotContains(t, envelope.Error, "connection reset")
		})
	}
}

/*
TestPaginated wraps data and metadata in one envelope.
*/
func TestPaginated(t *testing.T) {
	recorder := httptest.NewRecorder()
	params := pagination.Params{Page: 2, Limit: 2}
	respond.Paginated(recorder, []string{"c"}, pagination.NewMeta(params, 3))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"data":["c"],"meta":{"page":2,"limit":2,"total":3,"total_pages":2}}`, recorder.Body.String())
}

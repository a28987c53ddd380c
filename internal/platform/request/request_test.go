// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package requestutil_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/gymroster/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/gymroster/internal/platform/request"
	"github.com/taibuivan/gymroster/internal/platform/sec"
	"github.com/taibuivan/gymroster/internal/platform/validate"
)

type payload struct {
	ParticipantID string `json:"participant_id"`
}

func newRequest(body string) *http.Request {
	if body == "" {
		return httptest.NewRequest(http.MethodPost, "/", nil)
	}
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

/*
TestDecodeJSON covers strict decoding for required and optional bodies.
*/
func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		requiredErr error
		optionalErr error
		wantDecoded string
	}{
		{"Valid", `{"participant_id":"m-1"}`, nil, nil, "m-1"},
		{"Empty", "", validate.ErrInvalidJSON, nil, ""},
		{"Malformed", `{"participant_id":`, validate.ErrInvalidJSON, validate.ErrInvalidJSON, ""},
		{"Unknown field", `{"participant":"m-1"}`, validate.ErrInvalidJSON, validate.ErrInvalidJSON, ""},
		{"Trailing value", `{"participant_id":"m-1"} {}`, validate.ErrInvalidJSON, validate.ErrInvalidJSON, "m-1"},
		{"Too large", `{"participant_id":"` + strings.Repeat("x", requestutil.MaxBodyBytes) + `"}`, requestutil.ErrBodyTooLarge, requestutil.ErrBodyTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var required payload
			err := requestutil.DecodeJSON(newRequest(tt.body), &required)
			if tt.requiredErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantDecoded, required.ParticipantID)
			} else {
				assert.ErrorIs(t, err, tt.requiredErr)
			}

			var optional payload
			err = requestutil.DecodeOptionalJSON(newRequest(tt.body), &optional)
			if tt.optionalErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.wantDecoded, optional.ParticipantID)
			} else {
				assert.ErrorIs(t, err, tt.optionalErr)
			}
		})
	}
}

/*
TestRequiredClaims rejects anonymous requests.
*/
func TestRequiredClaims(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := requestutil.RequiredClaims(request)
	assert.Error(t, err)

	claims := &sec.AuthClaims{UserID: "m-1", Role: string(sec.RoleMember)}
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	got, err := requestutil.RequiredClaims(request)
	require.NoError(t, err)
	assert.Equal(t, "m-1", got.UserID)
}

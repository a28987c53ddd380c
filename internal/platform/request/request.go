// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

Bodies are size-capped and decoded strictly: unknown fields and trailing data
are rejected so typos in client payloads surface as 400 instead of being ignored.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/gymroster/internal/platform/apperr"
	"github.com/taibuivan/gymroster/internal/platform/ctxutil"
	"github.com/taibuivan/gymroster/internal/platform/sec"
	"github.com/taibuivan/gymroster/internal/platform/validate"
)

// MaxBodyBytes caps every decoded request body.
const MaxBodyBytes = 1 << 20

// ErrBodyTooLarge is returned when the body exceeds [MaxBodyBytes].
var ErrBodyTooLarge = apperr.New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body is too large")

/*
DecodeJSON decodes a required JSON body into target.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON on empty or malformed bodies, ErrBodyTooLarge
*/
func DecodeJSON(request *http.Request, target any) error {
	empty, err := decode(request, target)
	if err != nil {
		return err
	}
	if empty {
		return validate.ErrInvalidJSON
	}
	return nil
}

// DecodeOptionalJSON is [DecodeJSON] but leaves target untouched when the body is empty.
func DecodeOptionalJSON(request *http.Request, target any) error {
	_, err := decode(request, target)
	return err
}

func decode(request *http.Request, target any) (bool, error) {
	if request.Body == nil || request.Body == http.NoBody {
		return true, nil
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, request.Body, MaxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return true, nil
		case errors.As(err, &tooLarge):
			return false, ErrBodyTooLarge
		default:
			return false, validate.ErrInvalidJSON
		}
	}

	// A second value after the object is a malformed payload.
	if decoder.More() {
		return false, validate.ErrInvalidJSON
	}
	return false, nil
}

// Param retrieves a named URL parameter resolved by chi.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredClaims ensures the request is authenticated and returns the user claims.

Returns:
  - *sec.AuthClaims: The authenticated user claims
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/gymroster/internal/platform/apperr"
	"github.com/taibuivan/gymroster/internal/platform/ctxutil"
	"github.com/taibuivan/gymroster/internal/platform/respond"
	"github.com/taibuivan/gymroster/internal/platform/sec"
)

// TokenVerifier is satisfied by [*sec.Verifier]; tests supply a stub.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

var (
	errMalformedAuthorization = apperr.Unauthorized("Invalid authorization format")
	errInvalidToken           = apperr.Unauthorized("Invalid or expired token")
	errAuthRequired           = apperr.Unauthorized("Authentication required")
	errInsufficientRole       = apperr.Forbidden("Insufficient permissions")
)

// Authenticate verifies an optional bearer token.
//
// # Flow
//  1. No Authorization header: the request proceeds as anonymous.
//  2. Malformed header or a token the verifier rejects: 401.
//  3. Otherwise the claims go into the request context and the request logger
//     is tagged with user_id, so roster logs name the caller.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			token, ok := bearerToken(header)
			if !ok {
				respond.Error(writer, request, errMalformedAuthorization)
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				ctxutil.Logger(request.Context(), nil).DebugContext(request.Context(), "token_rejected",
					slog.String("reason", err.Error()),
				)
				respond.Error(writer, request, errInvalidToken.WithCause(err))
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.WithLogger(ctx, ctxutil.Logger(ctx, nil).With(slog.String("user_id", claims.UserID)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// bearerToken extracts the credential of a "Bearer <token>" header. The scheme
// is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// RequireAuth blocks anonymous requests. Mount it after [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return RequireRole(sec.RoleMember)(next)
}

// RequireRole blocks anonymous requests with 401 and callers below role with 403.
// Mount it after [Authenticate]; it implies [RequireAuth].
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, errAuthRequired)
				return
			}

			if !claims.RoleOf().AtLeast(role) {
				respond.Error(writer, request, errInsufficientRole)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package authz

import (
	"net/http"

	"github.com/tomtom215/recruitflow/internal/auth"
)

// Middleware provides route-level authorization. It must run after
// auth.Middleware.Authenticate.
type Middleware struct {
	enforcer   *Enforcer
	writeError auth.ErrorWriter
}

// NewMiddleware creates a new authorization middleware. A nil writeError
// falls back to plain-text http.Error responses.
func NewMiddleware(enforcer *Enforcer, writeError auth.ErrorWriter) *Middleware {
	if writeError == nil {
		writeError = func(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{
		enforcer:   enforcer,
		writeError: writeError,
	}
}

// Require returns chi-compatible middleware allowing the request only if the
// caller's role may perform action on object.
func (m *Middleware) Require(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				m.writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized: authentication required")
				return
			}

			if !m.enforcer.Allowed(claims.Role, object, action) {
				m.writeError(w, r, http.StatusForbidden, "FORBIDDEN", "Forbidden: insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

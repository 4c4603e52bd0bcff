// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/models"
)

type contextKey string

// ClaimsContextKey is the request context key holding *Claims.
const ClaimsContextKey contextKey = "claims"

// ErrorWriter renders an authentication or authorization failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// ProfileRecorder is called with the token profile on every successful
// authentication. It must not block for long.
type ProfileRecorder func(ctx context.Context, user models.User)

// Middleware authenticates requests with a JWT taken from the Authorization
// header, the "token" query parameter or the "token" cookie, in that order.
type Middleware struct {
	jwtManager *JWTManager
	writeError ErrorWriter
	onAuth     ProfileRecorder
}

// NewMiddleware creates a new authentication middleware. A nil writeError
// falls back to plain-text http.Error responses.
func NewMiddleware(jwtManager *JWTManager, writeError ErrorWriter) *Middleware {
	if writeError == nil {
		writeError = func(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{
		jwtManager: jwtManager,
		writeError: writeError,
	}
}

// OnAuthenticated installs a hook receiving the profile of each
// authenticated caller.
func (m *Middleware) OnAuthenticated(fn ProfileRecorder) {
	m.onAuth = fn
}

// Authenticate is middleware that rejects requests without a valid token and
// stores the claims in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.AuthenticateRequest(r)
		if err != nil {
			message := "Unauthorized: invalid token"
			if errors.Is(err, ErrMissingToken) {
				message = "Unauthorized: missing token"
			}
			logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")
			m.writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", message)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// AuthenticateRequest validates the request's token and returns its claims.
// It is also used by the socket handshake, which must fail before upgrading.
func (m *Middleware) AuthenticateRequest(r *http.Request) (*Claims, error) {
	token, err := ExtractToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	if m.onAuth != nil {
		m.onAuth(r.Context(), claims.User())
	}
	return claims, nil
}

// ExtractToken returns the bearer token from the Authorization header, the
// "token" query parameter or the "token" cookie.
func ExtractToken(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", ErrInvalidToken
		}
		return strings.TrimSpace(token), nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", ErrMissingToken
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext returns the authenticated claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

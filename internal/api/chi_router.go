// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/recruitflow/internal/auth"
	"github.com/tomtom215/recruitflow/internal/authz"
	"github.com/tomtom215/recruitflow/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	auth          *auth.Middleware
	authz         *authz.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. authzMW may be nil, in which case role-gated
// routes are open to every authenticated user.
func NewRouter(handler *Handler, authMW *auth.Middleware, authzMW *authz.Middleware, chiMW *ChiMiddleware) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		auth:          authMW,
		authz:         authzMW,
		chiMiddleware: chiMW,
	}
}

// require applies a role gate when an authorizer is configured.
func (router *Router) require(object, action string) func(http.Handler) http.Handler {
	if router.authz == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return router.authz.Require(object, action)
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	// ========================
	// Unauthenticated Endpoints
	// ========================
	r.With(router.chiMiddleware.RateLimitCustom("health", RateLimitHealth)).Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Socket upgrade authenticates itself so a bad token is a 401 before upgrade
	r.With(router.chiMiddleware.RateLimitCustom("websocket", RateLimitWebSocket)).Get("/ws", router.handler.WebSocket)

	// ========================
	// Authenticated API
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(router.auth.Authenticate)

		r.Route("/chat/channels", func(r chi.Router) {
			r.Get("/", router.handler.ListChannels)
			r.With(router.chiMiddleware.RateLimitCustom("write", RateLimitWrite)).Post("/", router.handler.CreateChannel)

			r.Route("/{id}/messages", func(r chi.Router) {
				r.Get("/", router.handler.ListMessages)
				r.With(router.chiMiddleware.RateLimitCustom("write", RateLimitWrite)).Post("/", router.handler.SendMessage)
				r.With(router.require(authz.ObjectMessage, authz.ActionPin)).Put("/{messageId}/pin", router.handler.PinMessage)
			})
		})

		r.Get("/notifications", router.handler.Notifications)
		r.Delete("/notifications/{id}", router.handler.AckNotification)

		r.With(router.require(authz.ObjectPresence, authz.ActionRead)).Get("/presence/online", router.handler.OnlineUsers)
	})

	return r
}

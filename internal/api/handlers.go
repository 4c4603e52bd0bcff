// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/recruitflow/internal/auth"
	"github.com/tomtom215/recruitflow/internal/chat"
	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
	ws "github.com/tomtom215/recruitflow/internal/websocket"
)

// ChatService is the chat pipeline as seen by the REST layer.
// *chat.Service implements it.
type ChatService interface {
	ListChannels(ctx context.Context, userID string) ([]models.Channel, error)
	CreateChannel(ctx context.Context, creatorID string, req chat.CreateChannelRequest) (*models.Channel, error)
	ListMessages(ctx context.Context, userID, channelID string, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, req chat.SendRequest) (*models.Message, error)
	PinMessage(ctx context.Context, userID, channelID, messageID string, pinned bool) (*models.Message, error)
	HistoryLimit() int
}

// NotificationInbox holds notifications missed while a user was offline.
type NotificationInbox interface {
	List(ctx context.Context, userID string) ([]models.Notification, error)
	Ack(ctx context.Context, userID, notificationID string) error
}

// Authorizer answers role checks. *authz.Enforcer implements it.
type Authorizer interface {
	Allowed(role, object, action string) bool
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies groups everything the handlers need. Inbox, Store and
// EventBusHealthy are optional.
type Dependencies struct {
	Config     *config.Config
	Chat       ChatService
	Core       *realtime.Hub
	Hub        *ws.Hub
	Auth       *auth.Middleware
	Authorizer Authorizer
	Inbox      NotificationInbox
	Store      Pinger

	// EventBusHealthy reports event bus connectivity for /health.
	EventBusHealthy func() bool
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, upgrader
//   - handlers_chat.go: channel and message endpoints
//   - handlers_notifications.go: inbox and presence endpoints
//   - handlers_websocket.go: socket upgrade
//   - handlers_health.go: health endpoint
type Handler struct {
	deps      Dependencies
	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:      deps,
		startTime: time.Now(),
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow clients.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin; an empty one would bypass CORS entirely
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.deps.Config == nil {
		return true
	}

	for _, allowedOrigin := range h.deps.Config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// claims returns the authenticated identity. Routes behind Authenticate
// always have one.
func claims(r *http.Request) *auth.Claims {
	c, _ := auth.ClaimsFromContext(r.Context())
	return c
}

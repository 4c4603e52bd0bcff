// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/recruitflow/internal/logging"
)

// WebSocket handles GET /ws. The token is verified before the upgrade, so an
// unauthenticated client gets a plain 401 instead of a socket.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	claims, err := h.deps.Auth.AuthenticateRequest(r)
	if err != nil {
		rw.Unauthorized("Authentication required")
		return
	}

	if h.deps.Hub == nil || !h.deps.Hub.Running() {
		logging.Warn().Err(ErrHubUnavailable).Msg("WebSocket connection rejected")
		rw.ServiceUnavailable("Realtime service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error
		logging.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	// The request context ends when this handler returns; keep its values only.
	ctx := context.WithoutCancel(r.Context())
	if _, err := h.deps.Hub.Accept(ctx, conn, claims); err != nil {
		logging.Warn().Err(err).Str("user_id", claims.UserID()).Msg("WebSocket client rejected after upgrade")
	}
}

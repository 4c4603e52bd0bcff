// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/recruitflow/internal/models"
)

// Notifications handles GET /notifications: the caller's notifications that
// arrived while they had no live socket, oldest first.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.deps.Inbox == nil {
		rw.Success([]models.Notification{})
		return
	}

	items, err := h.deps.Inbox.List(r.Context(), claims(r).UserID())
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(items)
}

// AckNotification handles DELETE /notifications/{id}.
func (h *Handler) AckNotification(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.deps.Inbox == nil {
		rw.NotFound("Notification not found")
		return
	}

	if err := h.deps.Inbox.Ack(r.Context(), claims(r).UserID(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.NoContent()
}

// OnlineUsers handles GET /presence/online.
func (h *Handler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]interface{}{
		"users": h.deps.Core.Presence.OnlineUsers(),
	})
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/recruitflow/internal/authz"
	"github.com/tomtom215/recruitflow/internal/chat"
	"github.com/tomtom215/recruitflow/internal/models"
)

// ListChannels handles GET /chat/channels. The default team channels are
// created on the first call against an empty store.
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	channels, err := h.deps.Chat.ListChannels(r.Context(), claims(r).UserID())
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(channels)
}

// CreateChannel handles POST /chat/channels. Team channels need the
// channel:team create permission, direct channels channel:direct.
func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CreateChannelRequest
	if !decodeAndValidate(rw, r, &req, false) {
		return
	}

	channelType := models.ChannelType(req.Type)
	if channelType == "" {
		channelType = models.ChannelTypeTeam
	}

	object := authz.ObjectTeamChannel
	if channelType == models.ChannelTypeDirect {
		object = authz.ObjectDirectChannel
	}
	c := claims(r)
	if h.deps.Authorizer != nil && !h.deps.Authorizer.Allowed(c.Role, object, authz.ActionCreate) {
		rw.Forbidden("Your role may not create this kind of channel")
		return
	}

	ch, err := h.deps.Chat.CreateChannel(r.Context(), c.UserID(), chat.CreateChannelRequest{
		Name:         req.Name,
		Description:  req.Description,
		Type:         channelType,
		Participants: req.Participants,
	})
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(ch)
}

// ListMessages handles GET /chat/channels/{id}/messages?limit=N.
// Messages are returned oldest first; limit is clamped to 1..100.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit := getIntParam(r, "limit", 0)

	messages, err := h.deps.Chat.ListMessages(r.Context(), claims(r).UserID(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondServiceError(rw, err)
		return
	}

	effective := limit
	if ceiling := h.deps.Chat.HistoryLimit(); effective <= 0 || effective > ceiling {
		effective = ceiling
	}
	rw.SuccessWithPagination(messages, &PaginationMeta{
		Count:   len(messages),
		Limit:   effective,
		HasMore: len(messages) == effective,
	})
}

// SendMessage handles POST /chat/channels/{id}/messages. The message is
// persisted and then broadcast to the channel's socket subscribers.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SendMessageRequest
	if !decodeAndValidate(rw, r, &req, false) {
		return
	}

	msg, err := h.deps.Chat.SendMessage(r.Context(), chat.SendRequest{
		ChannelID:   chi.URLParam(r, "id"),
		SenderID:    claims(r).UserID(),
		Text:        req.Text,
		Mentions:    req.Mentions,
		Attachments: req.Attachments,
	})
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Created(msg)
}

// PinMessage handles PUT /chat/channels/{id}/messages/{messageId}/pin.
// Requires the message pin permission (applied by the router).
func (h *Handler) PinMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req PinMessageRequest
	if !decodeAndValidate(rw, r, &req, true) {
		return
	}
	pinned := true
	if req.Pinned != nil {
		pinned = *req.Pinned
	}

	msg, err := h.deps.Chat.PinMessage(r.Context(), claims(r).UserID(), chi.URLParam(r, "id"), chi.URLParam(r, "messageId"), pinned)
	if err != nil {
		respondServiceError(rw, err)
		return
	}
	rw.Success(msg)
}

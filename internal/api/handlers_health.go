// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	HubRunning        bool    `json:"hub_running"`
	EventBusConnected *bool   `json:"event_bus_connected,omitempty"`
	Connections       int     `json:"connections"`
	OnlineUsers       int     `json:"online_users"`
	Uptime            float64 `json:"uptime_seconds"`
}

// Health handles health check requests. It always answers 200; Status is
// "degraded" when storage or the socket hub is unavailable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbConnected := h.deps.Store == nil || h.deps.Store.Ping(ctx) == nil
	hubRunning := h.deps.Hub != nil && h.deps.Hub.Running()

	health := HealthStatus{
		Status:            "healthy",
		DatabaseConnected: dbConnected,
		HubRunning:        hubRunning,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.deps.Core != nil {
		health.Connections = h.deps.Core.Registry.Count()
		health.OnlineUsers = len(h.deps.Core.Presence.OnlineUsers())
	}
	if h.deps.EventBusHealthy != nil {
		connected := h.deps.EventBusHealthy()
		health.EventBusConnected = &connected
		if !connected {
			health.Status = "degraded"
		}
	}
	if !dbConnected || !hubRunning {
		health.Status = "degraded"
	}

	NewResponseWriter(w, r).Success(health)
}

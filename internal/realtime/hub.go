// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package realtime

import "slices"

// Hub wires a Registry, Router and Presence together. Create one per process
// and pass it to the transport and the message pipeline.
type Hub struct {
	Registry *Registry
	Router   *Router
	Presence *Presence
}

// NewHub creates the three core components with their removal hooks wired:
// unregistering a connection drops its subscriptions and marks it offline.
func NewHub() *Hub {
	registry := NewRegistry()
	return &Hub{
		Registry: registry,
		Router:   NewRouter(registry),
		Presence: NewPresence(registry),
	}
}

// Connect registers conn under its owning user.
func (h *Hub) Connect(conn Conn) {
	h.Registry.Register(conn.UserID(), conn)
}

// Disconnect unregisters a connection. Unknown IDs are ignored.
func (h *Hub) Disconnect(connID string) {
	h.Registry.Unregister(connID)
}

func sortedSlice(s []string) []string {
	slices.Sort(s)
	return s
}

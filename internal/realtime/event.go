// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

// Package realtime holds the transport-agnostic core of the messaging layer:
//
//   - Registry: which live connection belongs to which user
//   - Router: which connections are subscribed to which channel, and fan-out
//   - Presence: per-user online state and targeted notifications
//
// Each component guards its own maps with a single mutex and is created per
// process (or per test) by the caller; there is no package-level state.
// Transports plug in by implementing Conn.
package realtime

// Server to client event types.
const (
	EventMessageReceived      = "message-received"
	EventMessagePinned        = "message-pinned"
	EventNotificationReceived = "notification-received"
	EventActivityCreated      = "activity-created"
	EventStageUpdated         = "stage-updated"
	EventError                = "error"
	EventPong                 = "pong"
)

// Event is an outbound message envelope.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Conn is one live transport session belonging to one authenticated user.
type Conn interface {
	// ID returns the transport-assigned connection identifier.
	ID() string

	// UserID returns the authenticated owner of the connection.
	UserID() string

	// Send queues an event for delivery without blocking. It returns false
	// when the event was not queued (closed connection or full buffer).
	Send(ev Event) bool
}

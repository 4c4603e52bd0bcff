// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Notification is delivered to one user (UserID set) or to everyone (UserID empty).
type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id,omitempty"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Link      string          `json:"link,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// IsGlobal reports whether the notification targets every connected user.
func (n *Notification) IsGlobal() bool {
	return n.UserID == ""
}

// Activity is a global activity feed entry (candidate added, interview booked, ...).
// Payload carries the producer's free-form fields unchanged.
type Activity struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity,omitempty"`
	EntityID  string          `json:"entity_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// StageChange records a candidate moving between pipeline stages.
type StageChange struct {
	ID          string          `json:"id"`
	CandidateID string          `json:"candidate_id"`
	FromStage   string          `json:"from_stage,omitempty"`
	ToStage     string          `json:"to_stage"`
	ChangedBy   string          `json:"changed_by"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

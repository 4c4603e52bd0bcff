// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package models

import (
	"slices"
	"time"
)

// ChannelType distinguishes open team channels from restricted direct channels.
type ChannelType string

const (
	// ChannelTypeTeam is visible to and joinable by every authenticated user.
	ChannelTypeTeam ChannelType = "team"

	// ChannelTypeDirect is restricted to its participant list.
	ChannelTypeDirect ChannelType = "direct"
)

// IsValid reports whether t is a known channel type.
func (t ChannelType) IsValid() bool {
	return t == ChannelTypeTeam || t == ChannelTypeDirect
}

// Channel is a named broadcast group.
type Channel struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        ChannelType `json:"channel_type"`
	CreatedByID string      `json:"created_by_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`

	// Participants lists the user IDs allowed into a direct channel.
	// Always empty for team channels.
	Participants []string `json:"participants,omitempty"`
}

// IsDirect reports whether the channel is a direct channel.
func (c *Channel) IsDirect() bool {
	return c.Type == ChannelTypeDirect
}

// HasParticipant reports whether userID is on the channel's participant list.
func (c *Channel) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

// CanAccess reports whether userID may read, join or post to the channel.
// Team channels are open; direct channels require participation.
func (c *Channel) CanAccess(userID string) bool {
	if !c.IsDirect() {
		return true
	}
	return c.HasParticipant(userID)
}

// Message is a single chat message. Text, mentions and attachments are
// immutable once persisted; IsPinned is the only mutable field.
type Message struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channel_id"`
	SenderID    string    `json:"sender_id"`
	Text        string    `json:"message_text"`
	Mentions    []string  `json:"mentions"`
	Attachments []string  `json:"attachments"`
	IsPinned    bool      `json:"is_pinned"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined from the sender's profile at read time.
	SenderName   string `json:"sender_name"`
	SenderAvatar string `json:"sender_avatar,omitempty"`
}

// NewMessage is the input to a durable message append. The store assigns ID
// and timestamps.
type NewMessage struct {
	ChannelID   string
	SenderID    string
	Text        string
	Mentions    []string
	Attachments []string
}

// NewChannel is the input to channel creation. The store assigns ID and CreatedAt.
type NewChannel struct {
	Name         string
	Description  string
	Type         ChannelType
	CreatedByID  string
	Participants []string
}

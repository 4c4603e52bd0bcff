// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestChannelCanAccess(t *testing.T) {
	t.Parallel()

	team := &Channel{ID: "c1", Type: ChannelTypeTeam}
	dm := &Channel{ID: "c2", Type: ChannelTypeDirect, Participants: []string{"alice", "bob"}}

	tests := []struct {
		name    string
		channel *Channel
		user    string
		want    bool
	}{
		{"team open to anyone", team, "carol", true},
		{"direct participant", dm, "alice", true},
		{"direct second participant", dm, "bob", true},
		{"direct outsider", dm, "carol", false},
	}

	for _, tt := range tests {
		if got := tt.channel.CanAccess(tt.user); got != tt.want {
			t.Errorf("%s: CanAccess(%q) = %v, want %v", tt.name, tt.user, got, tt.want)
		}
	}
}

func TestChannelTypeIsValid(t *testing.T) {
	t.Parallel()

	if !ChannelTypeTeam.IsValid() || !ChannelTypeDirect.IsValid() {
		t.Error("known channel types should be valid")
	}
	if ChannelType("group").IsValid() {
		t.Error("unknown channel type should be invalid")
	}
}

func TestMessageWireFormat(t *testing.T) {
	t.Parallel()

	msg := Message{
		ID:         "m1",
		ChannelID:  "general",
		SenderID:   "alice",
		Text:       "hello",
		Mentions:   []string{},
		SenderName: "Alice",
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	out := string(data)
	for _, want := range []string{`"channel_id":"general"`, `"message_text":"hello"`, `"sender_name":"Alice"`, `"is_pinned":false`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestNotificationIsGlobal(t *testing.T) {
	t.Parallel()

	if !(&Notification{}).IsGlobal() {
		t.Error("notification without user should be global")
	}
	if (&Notification{UserID: "bob"}).IsGlobal() {
		t.Error("targeted notification should not be global")
	}
}

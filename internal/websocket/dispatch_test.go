// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package websocket

import (
	"context"
	"slices"
	"testing"

	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
)

func TestDispatch_RejectsMalformedFrames(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode string
	}{
		{"not json", `{{{`, CodeInvalidMessage},
		{"missing type", `{"data":{}}`, CodeInvalidMessage},
		{"unknown type", `{"type":"teleport"}`, CodeUnknownEvent},
		{"data not an object", `{"type":"join-channel","data":"general"}`, CodeInvalidMessage},
		{"missing required field", `{"type":"join-channel","data":{}}`, CodeValidation},
		{"blank text", `{"type":"send-message","data":{"channelId":"x","text":"   "}}`, CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			s := env.connect("c-1", "alice", "member")

			env.dispatcher.Dispatch(context.Background(), s, []byte(tt.raw))

			got, ok := s.lastError()
			if !ok {
				t.Fatal("expected an error event")
			}
			if got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (message %q)", got.Code, tt.wantCode, got.Message)
			}
		})
	}
}

func TestDispatch_Ping(t *testing.T) {
	env := setupEnv(t)
	s := env.connect("c-1", "alice", "member")

	env.dispatch(t, s, EventPing, nil)

	if n := len(s.ofType(realtime.EventPong)); n != 1 {
		t.Errorf("pong events = %d, want 1", n)
	}
}

func TestDispatch_UserOnline(t *testing.T) {
	env := setupEnv(t)
	s := env.connect("c-1", "alice", "member")

	env.dispatch(t, s, EventUserOnline, map[string]string{"userId": "mallory"})
	if got, ok := s.lastError(); !ok || got.Code != CodeForbidden {
		t.Fatalf("impersonation: error = %+v, want %s", got, CodeForbidden)
	}
	if env.core.Presence.IsOnline("mallory") {
		t.Error("mallory must not be marked online by alice's connection")
	}

	env.dispatch(t, s, EventUserOnline, map[string]string{"userId": "alice"})
	if !env.core.Presence.IsOnline("alice") {
		t.Error("alice should be online")
	}
	// Idempotent
	env.dispatch(t, s, EventUserOnline, map[string]string{"userId": "alice"})
	if got := env.core.Presence.Connections("alice"); !slices.Equal(got, []string{"c-1"}) {
		t.Errorf("connections = %v, want [c-1]", got)
	}
}

func TestDispatch_JoinAndLeave(t *testing.T) {
	env := setupEnv(t)
	alice := env.connect("c-1", "alice", "member")
	carol := env.connect("c-2", "carol", "member")

	tests := []struct {
		name      string
		session   *fakeSession
		channelID string
		wantCode  string
	}{
		{"team channel is open", carol, env.team.ID, ""},
		{"participant joins direct channel", alice, env.dm.ID, ""},
		{"outsider cannot join direct channel", carol, env.dm.ID, CodeForbidden},
		{"unknown channel", alice, "no-such-channel", CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(tt.session.ofType(realtime.EventError))
			env.dispatch(t, tt.session, EventJoinChannel, map[string]string{"channelId": tt.channelID})

			subscribed := slices.Contains(env.core.Router.Subscriptions(tt.session.ID()), tt.channelID)
			if tt.wantCode == "" {
				if !subscribed {
					t.Errorf("%s not subscribed to %s", tt.session.ID(), tt.channelID)
				}
				if after := len(tt.session.ofType(realtime.EventError)); after != before {
					t.Errorf("unexpected error event")
				}
				return
			}
			if subscribed {
				t.Errorf("%s must not be subscribed to %s", tt.session.ID(), tt.channelID)
			}
			if got, _ := tt.session.lastError(); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}

	env.dispatch(t, carol, EventLeaveChannel, map[string]string{"channelId": env.team.ID})
	if subs := env.core.Router.Subscriptions(carol.ID()); len(subs) != 0 {
		t.Errorf("subscriptions after leave = %v, want none", subs)
	}
	// Leaving again is a no-op
	before := len(carol.ofType(realtime.EventError))
	env.dispatch(t, carol, EventLeaveChannel, map[string]string{"channelId": env.team.ID})
	if after := len(carol.ofType(realtime.EventError)); after != before {
		t.Error("repeated leave produced an error")
	}
}

func TestDispatch_SendMessagePersistsBeforeBroadcast(t *testing.T) {
	env := setupEnv(t)
	alice := env.connect("c-1", "alice", "member")
	bob := env.connect("c-2", "bob", "member")

	env.dispatch(t, alice, EventJoinChannel, map[string]string{"channelId": env.team.ID})
	env.dispatch(t, bob, EventJoinChannel, map[string]string{"channelId": env.team.ID})

	env.dispatch(t, alice, EventSendMessage, map[string]any{
		"channelId": env.team.ID,
		"text":      "  Interview with Dana moved to 3pm  ",
		"senderId":  "bob", // ignored
		"mentions":  []string{"bob"},
	})

	if got, ok := alice.lastError(); ok {
		t.Fatalf("unexpected error event: %+v", got)
	}

	stored, err := env.store.ListMessages(context.Background(), env.team.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored messages = %d, want 1", len(stored))
	}
	if stored[0].SenderID != "alice" {
		t.Errorf("sender = %q, want alice", stored[0].SenderID)
	}

	for _, s := range []*fakeSession{alice, bob} {
		got := s.ofType(realtime.EventMessageReceived)
		if len(got) != 1 {
			t.Fatalf("%s received %d messages, want 1", s.ID(), len(got))
		}
		msg := got[0].Data.(*models.Message)
		if msg.ID != stored[0].ID {
			t.Errorf("%s received id %s, stored id %s", s.ID(), msg.ID, stored[0].ID)
		}
		if msg.Text != "Interview with Dana moved to 3pm" {
			t.Errorf("text = %q, want trimmed", msg.Text)
		}
	}
}

func TestDispatch_SendMessageToForeignDirectChannel(t *testing.T) {
	env := setupEnv(t)
	carol := env.connect("c-1", "carol", "member")

	env.dispatch(t, carol, EventSendMessage, map[string]any{"channelId": env.dm.ID, "text": "hi"})

	if got, _ := carol.lastError(); got.Code != CodeForbidden {
		t.Errorf("code = %q, want %q", got.Code, CodeForbidden)
	}
	stored, err := env.store.ListMessages(context.Background(), env.dm.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 0 {
		t.Errorf("stored messages = %d, want 0", len(stored))
	}
}

func TestDispatch_SendNotification(t *testing.T) {
	tests := []struct {
		name         string
		role         string
		target       string
		wantCode     string
		wantAlice    int
		wantBob      int
		wantRelayed  int
		wantOfflined bool
	}{
		{"member notifies one user", "member", "bob", "", 0, 1, 1, false},
		{"member may not notify everyone", "member", "", CodeForbidden, 0, 0, 0, false},
		{"admin notifies everyone", "admin", "", "", 1, 1, 1, false},
		{"offline target is dropped silently", "member", "zed", "", 0, 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			alice := env.connect("c-1", "alice", tt.role)
			bob := env.connect("c-2", "bob", "member")

			var dropped []models.Notification
			env.core.Presence.SetDropHandler(func(n models.Notification) { dropped = append(dropped, n) })

			env.dispatch(t, alice, EventSendNotification, map[string]any{
				"userId":  tt.target,
				"type":    "interview",
				"title":   "Interview booked",
				"message": "Dana, Thursday 10:00",
				"data":    map[string]string{"candidateId": "cand-1"},
			})

			if tt.wantCode != "" {
				if got, _ := alice.lastError(); got.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
				}
			} else if got, ok := alice.lastError(); ok {
				t.Errorf("unexpected error event: %+v", got)
			}

			if n := len(alice.ofType(realtime.EventNotificationReceived)); n != tt.wantAlice {
				t.Errorf("alice notifications = %d, want %d", n, tt.wantAlice)
			}
			if n := len(bob.ofType(realtime.EventNotificationReceived)); n != tt.wantBob {
				t.Errorf("bob notifications = %d, want %d", n, tt.wantBob)
			}
			if n := len(env.publisher.notifications); n != tt.wantRelayed {
				t.Errorf("published notifications = %d, want %d", n, tt.wantRelayed)
			}
			if (len(dropped) == 1) != tt.wantOfflined {
				t.Errorf("dropped = %d, want offline drop %v", len(dropped), tt.wantOfflined)
			}
		})
	}
}

func TestDispatch_ActivityAndStageChange(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		event     string
		data      map[string]any
		wantEvent string
		wantCode  string
	}{
		{
			name:      "recruiter logs activity",
			role:      "recruiter",
			event:     EventActivityLog,
			data:      map[string]any{"action": "candidate_added", "entity": "candidate", "entityId": "cand-1"},
			wantEvent: realtime.EventActivityCreated,
		},
		{
			name:     "member may not log activity",
			role:     "member",
			event:    EventActivityLog,
			data:     map[string]any{"action": "candidate_added"},
			wantCode: CodeForbidden,
		},
		{
			name:      "recruiter moves candidate",
			role:      "recruiter",
			event:     EventCandidateStageChanged,
			data:      map[string]any{"candidateId": "cand-1", "fromStage": "screening", "toStage": "interview"},
			wantEvent: realtime.EventStageUpdated,
		},
		{
			name:     "stage change needs target stage",
			role:     "recruiter",
			event:    EventCandidateStageChanged,
			data:     map[string]any{"candidateId": "cand-1"},
			wantCode: CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			sender := env.connect("c-1", "alice", tt.role)
			watcher := env.connect("c-2", "bob", "member")

			env.dispatch(t, sender, tt.event, tt.data)

			if tt.wantCode != "" {
				if got, _ := sender.lastError(); got.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
				}
				if n := len(watcher.events); n != 0 {
					t.Errorf("watcher received %d events, want 0", n)
				}
				return
			}

			for _, s := range []*fakeSession{sender, watcher} {
				if n := len(s.ofType(tt.wantEvent)); n != 1 {
					t.Errorf("%s %s events = %d, want 1", s.ID(), tt.wantEvent, n)
				}
			}

			switch tt.wantEvent {
			case realtime.EventActivityCreated:
				a := watcher.ofType(tt.wantEvent)[0].Data.(models.Activity)
				if a.UserID != "alice" || a.Action != "candidate_added" || len(a.Payload) == 0 {
					t.Errorf("activity = %+v", a)
				}
				if len(env.publisher.activities) != 1 {
					t.Errorf("published activities = %d, want 1", len(env.publisher.activities))
				}
			case realtime.EventStageUpdated:
				sc := watcher.ofType(tt.wantEvent)[0].Data.(models.StageChange)
				if sc.ChangedBy != "alice" || sc.ToStage != "interview" || sc.FromStage != "screening" {
					t.Errorf("stage change = %+v", sc)
				}
				if len(env.publisher.stageChanges) != 1 {
					t.Errorf("published stage changes = %d, want 1", len(env.publisher.stageChanges))
				}
			}
		})
	}
}

func TestDispatch_NilAuthorizerAllows(t *testing.T) {
	env := setupEnv(t)
	d := NewDispatcher(env.core, env.chat, nil)
	s := env.connect("c-1", "alice", "")

	d.Dispatch(context.Background(), s, []byte(`{"type":"activity-log","data":{"action":"note"}}`))

	if n := len(s.ofType(realtime.EventActivityCreated)); n != 1 {
		t.Errorf("activity events = %d, want 1", n)
	}
}

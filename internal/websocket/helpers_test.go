// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package websocket

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/recruitflow/internal/authz"
	"github.com/tomtom215/recruitflow/internal/chat"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
	"github.com/tomtom215/recruitflow/internal/store"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// fakeSession is an in-memory Session that records every event sent to it.
type fakeSession struct {
	id, userID, role string

	mu     sync.Mutex
	events []realtime.Event
}

func (s *fakeSession) ID() string     { return s.id }
func (s *fakeSession) UserID() string { return s.userID }
func (s *fakeSession) Role() string   { return s.role }

func (s *fakeSession) Send(ev realtime.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return true
}

func (s *fakeSession) ofType(eventType string) []realtime.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []realtime.Event
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// lastError returns the most recent error payload, if any.
func (s *fakeSession) lastError() (ErrorPayload, bool) {
	errs := s.ofType(realtime.EventError)
	if len(errs) == 0 {
		return ErrorPayload{}, false
	}
	return errs[len(errs)-1].Data.(ErrorPayload), true
}

// recordingPublisher captures relayed events.
type recordingPublisher struct {
	mu            sync.Mutex
	activities    []*models.Activity
	stageChanges  []*models.StageChange
	notifications []*models.Notification
}

func (p *recordingPublisher) PublishActivity(_ context.Context, a *models.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activities = append(p.activities, a)
	return nil
}

func (p *recordingPublisher) PublishStageChange(_ context.Context, s *models.StageChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stageChanges = append(p.stageChanges, s)
	return nil
}

func (p *recordingPublisher) PublishNotification(_ context.Context, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, n)
	return nil
}

type testEnv struct {
	core       *realtime.Hub
	store      *store.MemoryStore
	chat       *chat.Service
	dispatcher *Dispatcher
	publisher  *recordingPublisher
	team       *models.Channel
	dm         *models.Channel
}

// setupEnv wires a realtime core, a memory-backed chat service and the
// embedded role policy. It creates a "general" team channel and a direct
// channel between alice and bob.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	core := realtime.NewHub()
	st := store.NewMemoryStore()
	svc := chat.NewService(st, core.Router, chat.DefaultConfig())

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}

	team, err := st.CreateChannel(ctx, models.NewChannel{Name: "general", Type: models.ChannelTypeTeam})
	if err != nil {
		t.Fatal(err)
	}
	dm, err := st.CreateChannel(ctx, models.NewChannel{Name: "alice-bob", Type: models.ChannelTypeDirect, Participants: []string{"alice", "bob"}})
	if err != nil {
		t.Fatal(err)
	}

	pub := &recordingPublisher{}
	d := NewDispatcher(core, svc, enforcer)
	d.SetPublisher(pub)

	return &testEnv{core: core, store: st, chat: svc, dispatcher: d, publisher: pub, team: team, dm: dm}
}

// connect registers a fake session with the core.
func (e *testEnv) connect(id, userID, role string) *fakeSession {
	s := &fakeSession{id: id, userID: userID, role: role}
	e.core.Connect(s)
	return s
}

// dispatch sends one client event from s.
func (e *testEnv) dispatch(t *testing.T, s *fakeSession, eventType string, data any) {
	t.Helper()
	frame := map[string]any{"type": eventType}
	if data != nil {
		frame["data"] = data
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	e.dispatcher.Dispatch(context.Background(), s, raw)
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
)

func TestRelayDeliversRemoteEvents(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		publish   func(p *Publisher) error
		eventType string
		// Expected deliveries; only alice subscribes to general.
		alice, bob int
	}{
		{
			name: "message created reaches channel subscribers",
			publish: func(p *Publisher) error {
				return p.PublishMessageCreated(ctx, &models.Message{ID: "m1", ChannelID: "general", SenderID: "carol", Text: "hi"})
			},
			eventType: realtime.EventMessageReceived,
			alice:     1,
		},
		{
			name: "pin reaches channel subscribers",
			publish: func(p *Publisher) error {
				return p.PublishMessagePinned(ctx, &models.Message{ID: "m1", ChannelID: "general", IsPinned: true})
			},
			eventType: realtime.EventMessagePinned,
			alice:     1,
		},
		{
			name: "activity reaches everyone",
			publish: func(p *Publisher) error {
				return p.PublishActivity(ctx, &models.Activity{ID: "a1", UserID: "carol", Action: "candidate_added"})
			},
			eventType: realtime.EventActivityCreated,
			alice:     1,
			bob:       1,
		},
		{
			name: "stage change reaches everyone",
			publish: func(p *Publisher) error {
				return p.PublishStageChange(ctx, &models.StageChange{ID: "s1", CandidateID: "cand-1", FromStage: "screening", ToStage: "interview"})
			},
			eventType: realtime.EventStageUpdated,
			alice:     1,
			bob:       1,
		},
		{
			name: "targeted notification reaches its user",
			publish: func(p *Publisher) error {
				return p.PublishNotification(ctx, &models.Notification{ID: "n1", UserID: "bob", Title: "New application"})
			},
			eventType: realtime.EventNotificationReceived,
			bob:       1,
		},
		{
			name: "global notification reaches everyone",
			publish: func(p *Publisher) error {
				return p.PublishNotification(ctx, &models.Notification{ID: "n2", Title: "Maintenance tonight"})
			},
			eventType: realtime.EventNotificationReceived,
			alice:     1,
			bob:       1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := newPubSub(t)
			hub := realtime.NewHub()
			alice := online(hub, "c-alice", "alice")
			bob := online(hub, "c-bob", "bob")
			if err := hub.Router.Join("c-alice", "general"); err != nil {
				t.Fatalf("Join() error = %v", err)
			}

			startRelay(t, ps, hub, "node-a")
			remote := NewPublisher(ps, PublisherConfig{SubjectPrefix: "test", Source: "node-b"})
			if err := tt.publish(remote); err != nil {
				t.Fatalf("publish error = %v", err)
			}

			waitFor(t, tt.eventType, func() bool {
				return len(alice.ofType(tt.eventType)) == tt.alice && len(bob.ofType(tt.eventType)) == tt.bob
			})
		})
	}
}

func TestRelayIgnoresOwnSource(t *testing.T) {
	ps := newPubSub(t)
	hub := realtime.NewHub()
	bob := online(hub, "c-bob", "bob")
	startRelay(t, ps, hub, "node-a")

	ctx := context.Background()
	local := NewPublisher(ps, PublisherConfig{SubjectPrefix: "test", Source: "node-a"})
	remote := NewPublisher(ps, PublisherConfig{SubjectPrefix: "test", Source: "node-b"})

	if err := local.PublishNotification(ctx, &models.Notification{ID: "own", UserID: "bob"}); err != nil {
		t.Fatal(err)
	}
	if err := remote.PublishNotification(ctx, &models.Notification{ID: "remote", UserID: "bob"}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "remote notification", func() bool {
		return len(bob.ofType(realtime.EventNotificationReceived)) > 0
	})
	got := bob.ofType(realtime.EventNotificationReceived)
	if len(got) != 1 {
		t.Fatalf("received %d notifications, want 1", len(got))
	}
	if n := got[0].Data.(models.Notification); n.ID != "remote" {
		t.Errorf("delivered %q, want remote", n.ID)
	}
}

func TestRelayDropsMalformedPayloads(t *testing.T) {
	ps := newPubSub(t)
	hub := realtime.NewHub()
	bob := online(hub, "c-bob", "bob")
	startRelay(t, ps, hub, "node-a")

	subject := Subject("test", TopicStageChanged)
	bad := []*message.Message{
		message.NewMessage("bad-json", []byte(`{"candidate_id":`)),
		message.NewMessage("no-candidate", []byte(`{"to_stage":"offer"}`)),
	}
	for _, msg := range bad {
		if err := ps.Publish(subject, msg); err != nil {
			t.Fatal(err)
		}
	}
	remote := NewPublisher(ps, PublisherConfig{SubjectPrefix: "test", Source: "node-b"})
	if err := remote.PublishStageChange(context.Background(), &models.StageChange{ID: "ok", CandidateID: "cand-1"}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "valid stage change", func() bool {
		return len(bob.ofType(realtime.EventStageUpdated)) > 0
	})
	got := bob.ofType(realtime.EventStageUpdated)
	if len(got) != 1 {
		t.Fatalf("received %d stage events, want 1", len(got))
	}
	if s := got[0].Data.(models.StageChange); s.ID != "ok" {
		t.Errorf("delivered %q, want ok", s.ID)
	}
}

func TestRelayRejectsUnknownChatTopic(t *testing.T) {
	ps := newPubSub(t)
	hub := realtime.NewHub()
	alice := online(hub, "c-alice", "alice")
	if err := hub.Router.Join("c-alice", "general"); err != nil {
		t.Fatal(err)
	}
	startRelay(t, ps, hub, "node-a")

	subject := Subject("test", StreamChat)
	for i, topic := range []string{"", TopicActivity, "chat.message_deleted"} {
		msg := message.NewMessage(fmt.Sprintf("bad-%d", i), []byte(`{"id":"x","channel_id":"general"}`))
		msg.Metadata.Set(MetadataSource, "node-b")
		msg.Metadata.Set(MetadataTopic, topic)
		if err := ps.Publish(subject, msg); err != nil {
			t.Fatal(err)
		}
	}
	remote := NewPublisher(ps, PublisherConfig{SubjectPrefix: "test", Source: "node-b"})
	if err := remote.PublishMessageCreated(context.Background(), &models.Message{ID: "ok", ChannelID: "general"}); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "valid chat event", func() bool { return len(alice.chatEvents()) > 0 })
	time.Sleep(50 * time.Millisecond)
	got := alice.chatEvents()
	if len(got) != 1 || got[0].Type != realtime.EventMessageReceived {
		t.Fatalf("chat events = %+v, want one message-received", got)
	}
	if m := got[0].Data.(*models.Message); m.ID != "ok" {
		t.Errorf("delivered %q, want ok", m.ID)
	}
	if len(alice.ofType(realtime.EventActivityCreated)) != 0 {
		t.Error("chat subject payload delivered as an activity")
	}
}

func TestRelayOfflineNotificationHitsDropHandler(t *testing.T) {
	ps := newPubSub(t)
	hub := realtime.NewHub()
	dropped := make(chan models.Notification, 1)
	hub.Presence.SetDropHandler(func(n models.Notification) { dropped <- n })
	startRelay(t, ps, hub, "node-a")

	remote := NewPublisher(ps, PublisherConfig{SubjectPrefix: "test", Source: "ats"})
	if err := remote.PublishNotification(context.Background(), &models.Notification{ID: "n-off", UserID: "dave"}); err != nil {
		t.Fatal(err)
	}

	select {
	case n := <-dropped:
		if n.ID != "n-off" {
			t.Errorf("dropped %q, want n-off", n.ID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("offline notification never reached the drop handler")
	}
}

func TestEmbeddedBusRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an in-process NATS server")
	}

	hub := realtime.NewHub()
	bob := online(hub, "c-bob", "bob")

	cfg := &config.NATSConfig{
		Enabled:          true,
		EmbeddedServer:   true,
		Host:             "127.0.0.1",
		Port:             -1,
		SubjectPrefix:    "it",
		SubscribersCount: 1,
		MaxReconnects:    1,
		ReconnectWait:    100 * time.Millisecond,
	}
	bus, err := Open(cfg, hub)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if cfg.InstanceID == "" {
		t.Error("Open() should assign an instance id")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bus.Relay.Serve(ctx) }()
	defer func() {
		cancel()
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("relay did not stop")
		}
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := bus.Close(shutdownCtx); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()
	waitFor(t, "bus health", bus.Healthy)

	peerPub, err := NewNATSPublisher(cfg, nil)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	peer := NewPublisher(peerPub, PublisherConfig{SubjectPrefix: "it", Source: "ats"})
	defer func() { _ = peer.Close() }()

	// Core NATS drops messages published before the subscription reaches the
	// server, so keep publishing until one lands.
	deadline := time.Now().Add(10 * time.Second)
	for len(bob.ofType(realtime.EventActivityCreated)) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("activity never relayed over NATS")
		}
		if err := peer.PublishActivity(context.Background(), &models.Activity{ID: "a-nats", Action: "offer_sent"}); err != nil {
			t.Fatalf("PublishActivity() error = %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	// Creates and pins of one channel replay in publish order.
	if err := hub.Router.Join("c-bob", "general"); err != nil {
		t.Fatal(err)
	}
	const n = 10
	var want []string
	for i := 0; i < n; i++ {
		m := &models.Message{ID: fmt.Sprintf("m%d", i), ChannelID: "general", Text: "update"}
		if err := peer.PublishMessageCreated(context.Background(), m); err != nil {
			t.Fatalf("PublishMessageCreated() error = %v", err)
		}
		m.IsPinned = true
		if err := peer.PublishMessagePinned(context.Background(), m); err != nil {
			t.Fatalf("PublishMessagePinned() error = %v", err)
		}
		want = append(want, realtime.EventMessageReceived+":"+m.ID, realtime.EventMessagePinned+":"+m.ID)
	}
	waitFor(t, "chat events over NATS", func() bool { return len(bob.chatEvents()) >= 2*n })

	events := bob.chatEvents()
	for i, ev := range events {
		got := ev.Type + ":" + ev.Data.(*models.Message).ID
		if got != want[i] {
			t.Fatalf("chat event %d = %s, want %s", i, got, want[i])
		}
	}
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package eventbus

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/realtime"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

type recordingConn struct {
	id     string
	userID string

	mu     sync.Mutex
	events []realtime.Event
}

func (c *recordingConn) ID() string     { return c.id }
func (c *recordingConn) UserID() string { return c.userID }

func (c *recordingConn) Send(ev realtime.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return true
}

func (c *recordingConn) ofType(eventType string) []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []realtime.Event
	for _, ev := range c.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// chatEvents returns message-received and message-pinned events in arrival order.
func (c *recordingConn) chatEvents() []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []realtime.Event
	for _, ev := range c.events {
		if ev.Type == realtime.EventMessageReceived || ev.Type == realtime.EventMessagePinned {
			out = append(out, ev)
		}
	}
	return out
}

// online registers a connection for userID and marks it online.
func online(hub *realtime.Hub, connID, userID string) *recordingConn {
	c := &recordingConn{id: connID, userID: userID}
	hub.Connect(c)
	hub.Presence.MarkOnline(userID, connID)
	return c
}

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })
	return ps
}

// startRelay runs a relay for source over ps until the test ends.
func startRelay(t *testing.T, ps message.Subscriber, hub *realtime.Hub, source string) *Relay {
	t.Helper()
	relay := NewRelay(ps, hub, RelayConfig{SubjectPrefix: "test", Source: source})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() = %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("relay did not stop")
		}
	})

	waitFor(t, "relay subscription", relay.Subscribed)
	return relay
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error {
	return errors.New("nats: no servers available for connection")
}

func (failingPublisher) Close() error { return nil }

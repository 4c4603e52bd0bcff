// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package realtime

import (
	"sync"

	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
	"github.com/tomtom215/recruitflow/internal/models"
)

// DropHandler receives notifications that could not be delivered because the
// target user had no live connection. Implementations must not block.
type DropHandler func(n models.Notification)

// Presence tracks which users are online and routes targeted and global
// events to their connections. A user is online while at least one of its
// connections is marked online.
type Presence struct {
	mu       sync.RWMutex
	registry *Registry
	online   map[string]map[string]struct{} // user -> connections
	onDrop   DropHandler
}

// NewPresence creates a presence relay bound to registry. Removing a
// connection from the registry marks it offline.
func NewPresence(registry *Registry) *Presence {
	p := &Presence{
		registry: registry,
		online:   make(map[string]map[string]struct{}),
	}
	registry.OnRemove(func(userID, connID string, _ bool) {
		p.MarkOffline(userID, connID)
	})
	return p
}

// SetDropHandler installs the handler for undeliverable notifications.
func (p *Presence) SetDropHandler(h DropHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onDrop = h
}

// MarkOnline records connID as an online connection of userID. Idempotent.
// It reports false, and records nothing, when connID is not registered to
// userID, so a connection removed mid-handshake never leaves the user online.
func (p *Presence) MarkOnline(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The registry check runs under p.mu: the removal hook's MarkOffline
	// cannot run between the check and the insert.
	if owner, ok := p.registry.UserOf(connID); !ok || owner != userID {
		return false
	}

	set, ok := p.online[userID]
	if !ok {
		set = make(map[string]struct{})
		p.online[userID] = set
		logging.Debug().Str("user_id", userID).Msg("user online")
	}
	set[connID] = struct{}{}
	metrics.OnlineUsers.Set(float64(len(p.online)))
	return true
}

// MarkOffline removes one connection of userID. The user goes offline when
// no connection remains; no offline event is pushed to other clients.
func (p *Presence) MarkOffline(userID, connID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.online[userID]
	if !ok {
		return
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(p.online, userID)
		logging.Debug().Str("user_id", userID).Msg("user offline")
	}
	metrics.OnlineUsers.Set(float64(len(p.online)))
}

// IsOnline reports whether userID has at least one online connection.
func (p *Presence) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.online[userID]) > 0
}

// OnlineUsers returns the IDs of every online user, sorted.
func (p *Presence) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]string, 0, len(p.online))
	for userID := range p.online {
		out = append(out, userID)
	}
	return sortedSlice(out)
}

// Connections returns the online connection IDs of userID, sorted.
func (p *Presence) Connections(userID string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedKeys(p.online[userID])
}

// Notify delivers a notification to every online connection of userID and
// returns the number of connections reached. With none, the notification is
// handed to the drop handler (if any) and 0 is returned; this is not an error.
func (p *Presence) Notify(userID string, n models.Notification) int {
	ev := Event{Type: EventNotificationReceived, Data: n}
	delivered := deliver(p.registry.resolve(p.Connections(userID)), ev)
	if delivered > 0 {
		return delivered
	}

	metrics.NotificationsDropped.Inc()
	logging.Debug().Str("user_id", userID).Str("notification_id", n.ID).Msg("notification dropped, user offline")

	p.mu.RLock()
	onDrop := p.onDrop
	p.mu.RUnlock()
	if onDrop != nil {
		onDrop(n)
	}
	return 0
}

// NotifyAll delivers a notification to every live connection.
func (p *Presence) NotifyAll(n models.Notification) int {
	return p.broadcastAll(Event{Type: EventNotificationReceived, Data: n})
}

// BroadcastActivity fans an activity out to every live connection,
// regardless of channel subscriptions.
func (p *Presence) BroadcastActivity(a models.Activity) int {
	return p.broadcastAll(Event{Type: EventActivityCreated, Data: a})
}

// BroadcastStageChange fans a candidate stage change out to every live connection.
func (p *Presence) BroadcastStageChange(s models.StageChange) int {
	return p.broadcastAll(Event{Type: EventStageUpdated, Data: s})
}

func (p *Presence) broadcastAll(ev Event) int {
	targets := p.registry.All()
	delivered := deliver(targets, ev)
	logging.Debug().Str("event", ev.Type).Int("connections", len(targets)).Int("delivered", delivered).Msg("global broadcast")
	return delivered
}

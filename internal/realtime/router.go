// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package realtime

import (
	"errors"
	"slices"
	"sync"

	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
)

// ErrUnknownConnection is returned when joining with a connection the
// registry does not know.
var ErrUnknownConnection = errors.New("realtime: unknown connection")

// Router tracks channel subscriptions per connection and fans events out to
// a channel's subscribers. Membership is connection-scoped, so two tabs of
// the same user can watch different channels.
type Router struct {
	mu       sync.RWMutex
	registry *Registry
	channels map[string]map[string]struct{} // channel -> connections
	subs     map[string]map[string]struct{} // connection -> channels
}

// NewRouter creates a router bound to registry. Connections removed from the
// registry are dropped from every channel automatically.
func NewRouter(registry *Registry) *Router {
	r := &Router{
		registry: registry,
		channels: make(map[string]map[string]struct{}),
		subs:     make(map[string]map[string]struct{}),
	}
	registry.OnRemove(func(_, connID string, _ bool) {
		r.RemoveConnection(connID)
	})
	return r
}

// Join subscribes a connection to a channel. Joining twice has no effect.
func (r *Router) Join(connID, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Checked under r.mu so RemoveConnection from the removal hook is
	// ordered after any membership added here.
	if _, ok := r.registry.Lookup(connID); !ok {
		return ErrUnknownConnection
	}

	members, ok := r.channels[channelID]
	if !ok {
		members = make(map[string]struct{})
		r.channels[channelID] = members
	}
	members[connID] = struct{}{}

	joined, ok := r.subs[connID]
	if !ok {
		joined = make(map[string]struct{})
		r.subs[connID] = joined
	}
	joined[channelID] = struct{}{}

	metrics.ChannelSubscriptions.Set(float64(r.countLocked()))
	return nil
}

// Leave unsubscribes a connection from a channel. Leaving a channel that was
// never joined is a no-op.
func (r *Router) Leave(connID, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(connID, channelID)
	metrics.ChannelSubscriptions.Set(float64(r.countLocked()))
}

func (r *Router) leaveLocked(connID, channelID string) {
	if members, ok := r.channels[channelID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.channels, channelID)
		}
	}
	if joined, ok := r.subs[connID]; ok {
		delete(joined, channelID)
		if len(joined) == 0 {
			delete(r.subs, connID)
		}
	}
}

// RemoveConnection drops a connection from every channel it joined.
func (r *Router) RemoveConnection(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channelID := range r.subs[connID] {
		r.leaveLocked(connID, channelID)
	}
	delete(r.subs, connID)
	metrics.ChannelSubscriptions.Set(float64(r.countLocked()))
}

// Broadcast delivers ev to every connection subscribed to channelID at the
// time of the call, including the sender's own connections. It returns the
// number of connections the event was queued for.
func (r *Router) Broadcast(channelID string, ev Event) int {
	targets := r.registry.resolve(r.Subscribers(channelID))
	delivered := deliver(targets, ev)

	logging.Debug().
		Str("channel_id", channelID).
		Str("event", ev.Type).
		Int("subscribers", len(targets)).
		Int("delivered", delivered).
		Msg("channel broadcast")
	return delivered
}

// Subscribers returns the connection IDs subscribed to channelID, sorted.
func (r *Router) Subscribers(channelID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.channels[channelID])
}

// Subscriptions returns the channel IDs connID is subscribed to, sorted.
func (r *Router) Subscriptions(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.subs[connID])
}

func (r *Router) countLocked() int {
	n := 0
	for _, joined := range r.subs {
		n += len(joined)
	}
	return n
}

// deliver queues ev on each connection and records delivery metrics.
func deliver(targets []Conn, ev Event) int {
	delivered := 0
	for _, conn := range targets {
		if conn.Send(ev) {
			delivered++
			continue
		}
		metrics.WSEventsDropped.WithLabelValues(ev.Type, "send_failed").Inc()
		logging.Warn().
			Str("connection_id", conn.ID()).
			Str("user_id", conn.UserID()).
			Str("event", ev.Type).
			Msg("event not queued for connection")
	}
	metrics.WSEventsSent.WithLabelValues(ev.Type).Add(float64(delivered))
	return delivered
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

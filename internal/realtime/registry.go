// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package realtime

import (
	"slices"
	"sync"

	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
)

// RemovalHook is called after a connection leaves the registry. last is true
// when the user has no remaining connections.
type RemovalHook func(userID, connID string, last bool)

type registration struct {
	conn   Conn
	userID string
}

// Registry maps users to their live connections. A user may hold any number
// of connections at once (tabs, devices).
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]registration
	byUser map[string]map[string]struct{}
	hooks  []RemovalHook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]registration),
		byUser: make(map[string]map[string]struct{}),
	}
}

// OnRemove adds a hook run after every effective Unregister. Hooks run in
// registration order, outside the registry lock.
func (r *Registry) OnRemove(hook RemovalHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Register records that conn belongs to userID. Registering the same pair
// again has no effect. Re-registering a connection under another user moves it.
func (r *Registry) Register(userID string, conn Conn) {
	connID := conn.ID()

	r.mu.Lock()
	var moved func()
	if prev, ok := r.conns[connID]; ok {
		if prev.userID == userID {
			r.mu.Unlock()
			return
		}
		last := r.detachLocked(prev.userID, connID)
		hooks := slices.Clone(r.hooks)
		moved = func() {
			for _, hook := range hooks {
				hook(prev.userID, connID, last)
			}
		}
	}

	r.conns[connID] = registration{conn: conn, userID: userID}
	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[userID] = set
	}
	set[connID] = struct{}{}
	total := len(r.conns)
	r.mu.Unlock()

	if moved != nil {
		moved()
	}

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Str("user_id", userID).Str("connection_id", connID).Int("total_connections", total).Msg("connection registered")
}

// Unregister removes a connection and runs the removal hooks. Unknown
// connection IDs are ignored, so late or duplicate disconnects are harmless.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	reg, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.conns, connID)
	last := r.detachLocked(reg.userID, connID)
	hooks := slices.Clone(r.hooks)
	total := len(r.conns)
	r.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Str("user_id", reg.userID).Str("connection_id", connID).Bool("last", last).Msg("connection unregistered")

	for _, hook := range hooks {
		hook(reg.userID, connID, last)
	}
}

// detachLocked removes connID from the user's set and reports whether it was the last.
func (r *Registry) detachLocked(userID, connID string) bool {
	set := r.byUser[userID]
	delete(set, connID)
	if len(set) == 0 {
		delete(r.byUser, userID)
		return true
	}
	return false
}

// FindConnections returns the IDs of every live connection of userID, sorted.
// The result is empty, never nil, when the user has none.
func (r *Registry) FindConnections(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Lookup returns the connection registered under connID.
func (r *Registry) Lookup(connID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.conns[connID]
	return reg.conn, ok
}

// UserOf returns the user a connection is registered to.
func (r *Registry) UserOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.conns[connID]
	return reg.userID, ok
}

// All returns every live connection ordered by connection ID.
func (r *Registry) All() []Conn {
	r.mu.RLock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return r.resolve(ids)
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// resolve maps connection IDs to live connections, skipping any that have
// gone away since the IDs were collected.
func (r *Registry) resolve(ids []string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(ids))
	for _, id := range ids {
		if reg, ok := r.conns[id]; ok {
			out = append(out, reg.conn)
		}
	}
	return out
}

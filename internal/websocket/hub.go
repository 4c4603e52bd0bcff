// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/recruitflow/internal/auth"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/realtime"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled indicates the parent context was canceled.
	// This is the normal graceful shutdown path (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// ErrHubNotRunning is returned by Register while the hub's run loop is not
// active (before start, or between supervisor restarts).
var ErrHubNotRunning = errors.New("websocket hub is not running")

// Hub owns the lifecycle of socket clients: it registers them with the
// realtime core on connect, removes them on disconnect and closes every
// client when its run loop stops.
type Hub struct {
	core       *realtime.Hub
	dispatcher *Dispatcher
	cfg        Config

	mu      sync.RWMutex
	clients map[string]*Client
	running bool
}

// NewHub creates a transport hub bound to the realtime core.
func NewHub(core *realtime.Hub, dispatcher *Dispatcher, cfg Config) *Hub {
	return &Hub{
		core:       core,
		dispatcher: dispatcher,
		cfg:        cfg.withDefaults(),
		clients:    make(map[string]*Client),
	}
}

// Config returns the effective client configuration.
func (h *Hub) Config() Config {
	return h.cfg
}

// RunWithContext marks the hub as accepting clients until ctx is canceled.
// On cancellation every connected client is closed and ctx.Err() is
// returned, so a supervisor can restart the hub without orphaned sockets.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	logging.Info().Str("component", "websocket-hub").Msg("websocket hub started")

	<-ctx.Done()
	h.logGracefulShutdown(ctx)
	return ctx.Err()
}

// Register adds a client to the hub and the realtime core, and marks the
// connection online. It fails if the hub is not running.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}

	h.clients[c.id] = c
	h.core.Connect(c)
	h.core.Presence.MarkOnline(c.userID, c.id)

	logging.Info().
		Str("connection_id", c.id).
		Str("user_id", c.userID).
		Int("total_clients", len(h.clients)).
		Msg("websocket client connected")
	return nil
}

// Accept wraps an upgraded connection in a Client, registers it and starts
// its pumps. If the hub is not running the socket is closed with a
// try-again-later frame and the error is returned.
func (h *Hub) Accept(ctx context.Context, conn *websocket.Conn, claims *auth.Claims) (*Client, error) {
	client := NewClient(h, conn, claims)
	if err := h.Register(client); err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteWait))
		_ = conn.Close()
		return nil, err
	}
	client.Start(ctx)
	return client, nil
}

// Running reports whether the hub currently accepts clients.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Unregister removes a client and closes its send queue. Safe to call more
// than once and from any goroutine.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	total := len(h.clients)
	h.mu.Unlock()

	c.close()
	if !ok {
		return
	}

	h.core.Disconnect(c.id)
	logging.Info().
		Str("connection_id", c.id).
		Str("user_id", c.userID).
		Int("total_clients", total).
		Msg("websocket client disconnected")
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err() is
// not logged as an error because cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// getShutdownReason determines the shutdown reason from the context error.
func getShutdownReason(ctx context.Context) ShutdownReason {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// closeAllClients stops accepting clients and closes every connected one in
// connection order.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	h.running = false
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].seq < clients[j].seq
	})

	for _, client := range clients {
		h.core.Disconnect(client.id)
		client.close()
	}
	return len(clients)
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package websocket

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/recruitflow/internal/auth"
	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
	"github.com/tomtom215/recruitflow/internal/realtime"
)

// Config holds per-client transport limits.
type Config struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	SendBuffer     int

	// InboundRate is the sustained inbound events per second per client;
	// InboundBurst is the bucket size. A zero rate disables limiting.
	InboundRate  float64
	InboundBurst int
}

// ConfigFromRealtime converts the loaded realtime configuration.
func ConfigFromRealtime(rc *config.RealtimeConfig) Config {
	return Config{
		WriteWait:      rc.WriteWait,
		PongWait:       rc.PongWait,
		MaxMessageSize: rc.MaxMessageSize,
		SendBuffer:     rc.SendBuffer,
		InboundRate:    rc.InboundRate,
		InboundBurst:   rc.InboundBurst,
	}
}

func (c Config) withDefaults() Config {
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 512 * 1024 // 512 KB
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.InboundRate > 0 && c.InboundBurst <= 0 {
		c.InboundBurst = int(c.InboundRate) + 1
	}
	return c
}

func (c Config) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

// clientSeq generates monotonically increasing connection numbers, used for
// "c-<n>" identifiers and deterministic shutdown order.
var clientSeq atomic.Uint64

// Client is a middleman between the websocket connection and the realtime
// core. It implements realtime.Conn.
type Client struct {
	seq    uint64
	id     string
	userID string
	role   string

	hub     *Hub
	conn    *websocket.Conn
	limiter *rate.Limiter

	mu     sync.RWMutex
	send   chan realtime.Event
	closed bool
}

// NewClient creates a client for an authenticated connection.
func NewClient(hub *Hub, conn *websocket.Conn, claims *auth.Claims) *Client {
	cfg := hub.cfg
	seq := clientSeq.Add(1)

	c := &Client{
		seq:    seq,
		id:     "c-" + strconv.FormatUint(seq, 10),
		userID: claims.UserID(),
		role:   claims.Role,
		hub:    hub,
		conn:   conn,
		send:   make(chan realtime.Event, cfg.SendBuffer),
	}
	if cfg.InboundRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.InboundRate), cfg.InboundBurst)
	}
	return c
}

// ID returns the connection identifier.
func (c *Client) ID() string { return c.id }

// UserID returns the authenticated owner of the connection.
func (c *Client) UserID() string { return c.userID }

// Role returns the owner's role claim.
func (c *Client) Role() string { return c.role }

// Send queues an event without blocking. A client whose buffer is full is
// too slow to keep up and is disconnected.
func (c *Client) Send(ev realtime.Event) bool {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return false
	}
	select {
	case c.send <- ev:
		c.mu.RUnlock()
		return true
	default:
	}
	c.mu.RUnlock()

	logging.Warn().
		Str("connection_id", c.id).
		Str("user_id", c.userID).
		Str("event", ev.Type).
		Msg("send buffer full, disconnecting slow client")
	go c.hub.Unregister(c)
	return false
}

// close stops the send queue; writePump then sends a close frame.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// allow applies the inbound rate limit.
func (c *Client) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// readPump pumps events from the websocket connection to the dispatcher.
// Events of one client are handled one at a time, in arrival order.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Str("connection_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}

		if !c.allow() {
			metrics.RecordInboundEvent("", "rate_limited")
			replyError(c, "", CodeRateLimited, "too many events, slow down")
			continue
		}

		c.hub.dispatcher.Dispatch(ctx, c, data)
	}
}

// writePump pumps events from the send queue to the websocket connection.
func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Explicitly ignore error - best-effort cleanup
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the queue
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			payload, err := json.Marshal(ev)
			if err != nil {
				logging.Error().Err(err).Str("event", ev.Type).Msg("failed to encode websocket event")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Str("connection_id", c.id).Msg("failed to write websocket event")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client. ctx scopes the storage
// calls made on behalf of the client's events.
func (c *Client) Start(ctx context.Context) {
	ctx = logging.ContextWithConnectionID(ctx, c.id)
	go c.writePump()
	go c.readPump(ctx)
}

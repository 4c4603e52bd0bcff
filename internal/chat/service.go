// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

// Package chat implements the message delivery pipeline: every chat message,
// whether it arrives over REST or the socket, is validated, access-checked,
// durably stored and only then broadcast to the channel's subscribers.
package chat

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/tomtom215/recruitflow/internal/cache"
	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
	"github.com/tomtom215/recruitflow/internal/store"
)

// Broadcaster fans an event out to a channel's subscribers.
// *realtime.Router satisfies it.
type Broadcaster interface {
	Broadcast(channelID string, ev realtime.Event) int
}

// Publisher forwards persisted chat events to other services. Publishing is
// best-effort: errors are logged and never fail the originating operation.
type Publisher interface {
	PublishMessageCreated(ctx context.Context, msg *models.Message) error
	PublishMessagePinned(ctx context.Context, msg *models.Message) error
}

// Config holds pipeline limits.
type Config struct {
	// HistoryLimit caps and defaults ListMessages.
	HistoryLimit int

	// MaxMessageLength bounds trimmed text length in runes.
	MaxMessageLength int

	// MaxChannelNameLength bounds trimmed channel names in runes.
	MaxChannelNameLength int

	// BootstrapDefaults creates the default team channels on the first
	// ListChannels against an empty store.
	BootstrapDefaults bool

	// ProfileCacheSize and ProfileTTL bound the sender profile cache.
	ProfileCacheSize int
	ProfileTTL       time.Duration
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{
		HistoryLimit:         100,
		MaxMessageLength:     4000,
		MaxChannelNameLength: 80,
		BootstrapDefaults:    true,
		ProfileCacheSize:     1000,
		ProfileTTL:           time.Minute,
	}
}

// ConfigFromChat converts loaded settings. Non-positive limits keep their
// defaults.
func ConfigFromChat(cc *config.ChatConfig) Config {
	cfg := DefaultConfig()
	if cc.HistoryLimit > 0 {
		cfg.HistoryLimit = cc.HistoryLimit
	}
	if cc.MaxMessageLength > 0 {
		cfg.MaxMessageLength = cc.MaxMessageLength
	}
	if cc.MaxChannelNameLength > 0 {
		cfg.MaxChannelNameLength = cc.MaxChannelNameLength
	}
	cfg.BootstrapDefaults = cc.BootstrapDefaults
	return cfg
}

// SendRequest is one message submission. SenderID must come from the
// authenticated identity, never from client payload.
type SendRequest struct {
	ChannelID   string
	SenderID    string
	Text        string
	Mentions    []string
	Attachments []string
}

// Service is the single path by which chat messages are created.
type Service struct {
	store     store.Store
	router    Broadcaster
	publisher Publisher
	cfg       Config
	profiles  *cache.LRU[models.User]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	bootstrapped atomic.Bool
}

// NewService creates a chat service. Zero limits in cfg take their defaults.
func NewService(st store.Store, router Broadcaster, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > def.HistoryLimit {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = def.MaxMessageLength
	}
	if cfg.MaxChannelNameLength <= 0 {
		cfg.MaxChannelNameLength = def.MaxChannelNameLength
	}
	if cfg.ProfileCacheSize <= 0 {
		cfg.ProfileCacheSize = def.ProfileCacheSize
	}
	if cfg.ProfileTTL <= 0 {
		cfg.ProfileTTL = def.ProfileTTL
	}

	return &Service{
		store:    st,
		router:   router,
		cfg:      cfg,
		profiles: cache.NewLRU[models.User](cfg.ProfileCacheSize, cfg.ProfileTTL),
		locks:    make(map[string]*sync.Mutex),
	}
}

// HistoryLimit returns the effective maximum page size of ListMessages.
func (s *Service) HistoryLimit() int {
	return s.cfg.HistoryLimit
}

// SetPublisher installs the event bus publisher. Call before serving traffic.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// SendMessage validates, persists and broadcasts one message, in that order.
// If persistence fails nothing is broadcast and the error wraps ErrStorage.
// Messages of one channel are persisted and broadcast under a per-channel
// lock, so every subscriber sees them in storage order.
func (s *Service) SendMessage(ctx context.Context, req SendRequest) (*models.Message, error) {
	start := time.Now()
	msg, recipients, err := s.sendMessage(ctx, req)

	stage := ""
	if err != nil {
		stage = failureStage(err)
	}
	metrics.RecordChatSend(time.Since(start), recipients, stage)

	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).
			Str("channel_id", req.ChannelID).
			Str("sender_id", req.SenderID).
			Msg("message rejected")
		return nil, err
	}
	return msg, nil
}

func (s *Service) sendMessage(ctx context.Context, req SendRequest) (*models.Message, int, error) {
	if strings.TrimSpace(req.SenderID) == "" {
		return nil, 0, ErrUnauthenticated
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, 0, validationError("message text is required")
	}
	if n := utf8.RuneCountInString(text); n > s.cfg.MaxMessageLength {
		return nil, 0, validationError("message text is %d characters, maximum is %d", n, s.cfg.MaxMessageLength)
	}
	if strings.TrimSpace(req.ChannelID) == "" {
		return nil, 0, validationError("channel id is required")
	}

	if _, err := s.accessibleChannel(ctx, req.SenderID, req.ChannelID); err != nil {
		return nil, 0, err
	}

	unlock := s.lockChannel(req.ChannelID)
	defer unlock()

	msg, err := s.store.CreateMessage(ctx, models.NewMessage{
		ChannelID:   req.ChannelID,
		SenderID:    req.SenderID,
		Text:        text,
		Mentions:    req.Mentions,
		Attachments: req.Attachments,
	})
	if err != nil {
		return nil, 0, storeError("persist message", err)
	}

	// The message is durable from here on; it is broadcast even if the
	// caller has gone away.
	s.decorate(context.WithoutCancel(ctx), msg)
	recipients := s.router.Broadcast(msg.ChannelID, realtime.Event{Type: realtime.EventMessageReceived, Data: msg})

	logging.Ctx(ctx).Debug().
		Str("message_id", msg.ID).
		Str("channel_id", msg.ChannelID).
		Int("recipients", recipients).
		Msg("message delivered")

	// Published under the channel lock so other nodes see storage order.
	s.publish(ctx, msg, false)
	return msg, recipients, nil
}

// ListMessages returns the newest limit messages of a channel, oldest first.
// A limit outside 1..HistoryLimit is clamped to HistoryLimit.
func (s *Service) ListMessages(ctx context.Context, userID, channelID string, limit int) ([]models.Message, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}

	if _, err := s.accessibleChannel(ctx, userID, channelID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, channelID, limit)
	if err != nil {
		return nil, storeError("list messages", err)
	}
	for i := range messages {
		if messages[i].SenderName == "" {
			messages[i].SenderName = messages[i].SenderID
		}
	}
	return messages, nil
}

// Authorize reports whether userID may join channelID. It gates the socket
// join-channel event.
func (s *Service) Authorize(ctx context.Context, userID, channelID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	_, err := s.accessibleChannel(ctx, userID, channelID)
	return err
}

// PinMessage sets or clears a message's pinned flag and broadcasts the
// updated message as message-pinned.
func (s *Service) PinMessage(ctx context.Context, userID, channelID, messageID string, pinned bool) (*models.Message, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if _, err := s.accessibleChannel(ctx, userID, channelID); err != nil {
		return nil, err
	}

	unlock := s.lockChannel(channelID)
	msg, err := s.store.SetPinned(ctx, channelID, messageID, pinned)
	if err != nil {
		unlock()
		return nil, storeError("pin message", err)
	}
	s.decorate(context.WithoutCancel(ctx), msg)
	s.router.Broadcast(channelID, realtime.Event{Type: realtime.EventMessagePinned, Data: msg})
	s.publish(ctx, msg, true)
	unlock()

	logging.Ctx(ctx).Info().
		Str("message_id", messageID).
		Str("channel_id", channelID).
		Str("user_id", userID).
		Bool("pinned", pinned).
		Msg("message pin updated")
	return msg, nil
}

// accessibleChannel loads a channel and checks userID may use it.
func (s *Service) accessibleChannel(ctx context.Context, userID, channelID string) (*models.Channel, error) {
	ch, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		return nil, storeError("load channel", err)
	}
	if !ch.CanAccess(userID) {
		return nil, ErrForbidden
	}
	return ch, nil
}

// decorate fills the sender display fields. A missing profile falls back to
// the sender ID so the broadcast never blocks on profile data.
func (s *Service) decorate(ctx context.Context, msg *models.Message) {
	if msg.SenderName != "" {
		return
	}
	user, ok := s.profiles.Get(msg.SenderID)
	if !ok {
		loaded, err := s.store.GetUser(ctx, msg.SenderID)
		if err != nil {
			msg.SenderName = msg.SenderID
			return
		}
		user = *loaded
		s.profiles.Add(user.ID, user)
	}
	if user.Name == "" {
		msg.SenderName = msg.SenderID
		return
	}
	msg.SenderName = user.Name
	msg.SenderAvatar = user.AvatarURL
}

// RecordProfile stores the latest display profile for a user and refreshes
// the cached copy used to decorate that user's messages.
func (s *Service) RecordProfile(ctx context.Context, u models.User) error {
	if err := s.store.UpsertUser(ctx, u); err != nil {
		s.profiles.Remove(u.ID)
		return storeError("record profile", err)
	}
	s.profiles.Add(u.ID, u)
	return nil
}

// lockChannel serializes persist and broadcast for one channel.
func (s *Service) lockChannel(channelID string) (unlock func()) {
	s.locksMu.Lock()
	mu, ok := s.locks[channelID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[channelID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// publish forwards msg to the event bus, if one is configured.
func (s *Service) publish(ctx context.Context, msg *models.Message, pinned bool) {
	if s.publisher == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	event := "message_created"
	var err error
	if pinned {
		event = "message_pinned"
		err = s.publisher.PublishMessagePinned(ctx, msg)
	} else {
		err = s.publisher.PublishMessageCreated(ctx, msg)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("event", event).
			Str("message_id", msg.ID).
			Msg("failed to publish chat event")
	}
}

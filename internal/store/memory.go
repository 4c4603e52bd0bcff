// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/tomtom215/recruitflow/internal/models"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	channels []*models.Channel
	byID     map[string]*models.Channel
	names    map[string]string
	messages map[string][]*models.Message
	users    map[string]models.User
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]*models.Channel),
		names:    make(map[string]string),
		messages: make(map[string][]*models.Message),
		users:    make(map[string]models.User),
		now:      time.Now,
	}
}

// BootstrapChannels implements Store.
func (s *MemoryStore) BootstrapChannels(ctx context.Context, defaults []models.NewChannel) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.channels) > 0 {
		return false, nil
	}
	for _, ch := range defaults {
		if _, err := s.createChannelLocked(ch); err != nil {
			return false, err
		}
	}
	return len(defaults) > 0, nil
}

// ListChannels implements Store.
func (s *MemoryStore) ListChannels(ctx context.Context, userID string) ([]models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Channel, 0, len(s.channels))
	for _, ch := range s.channels {
		if ch.CanAccess(userID) {
			out = append(out, copyChannel(ch))
		}
	}
	return out, nil
}

// GetChannel implements Store.
func (s *MemoryStore) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := copyChannel(ch)
	return &c, nil
}

// CreateChannel implements Store.
func (s *MemoryStore) CreateChannel(ctx context.Context, ch models.NewChannel) (*models.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.createChannelLocked(ch)
	if err != nil {
		return nil, err
	}
	c := copyChannel(created)
	return &c, nil
}

func (s *MemoryStore) createChannelLocked(ch models.NewChannel) (*models.Channel, error) {
	id := newID()
	key := nameKey(ch, id)
	if _, taken := s.names[key]; taken {
		return nil, ErrConflict
	}

	created := &models.Channel{
		ID:          id,
		Name:        ch.Name,
		Description: ch.Description,
		Type:        ch.Type,
		CreatedByID: ch.CreatedByID,
		CreatedAt:   s.now().UTC(),
	}
	if ch.Type == models.ChannelTypeDirect {
		created.Participants = dedupe(ch.Participants)
	}

	s.channels = append(s.channels, created)
	s.byID[id] = created
	s.names[key] = id
	return created, nil
}

// CreateMessage implements Store.
func (s *MemoryStore) CreateMessage(ctx context.Context, msg models.NewMessage) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[msg.ChannelID]; !ok {
		return nil, ErrNotFound
	}

	now := s.now().UTC()
	if prev := s.messages[msg.ChannelID]; len(prev) > 0 {
		if last := prev[len(prev)-1].CreatedAt; now.Before(last) {
			now = last
		}
	}
	m := &models.Message{
		ID:          newID(),
		ChannelID:   msg.ChannelID,
		SenderID:    msg.SenderID,
		Text:        msg.Text,
		Mentions:    slices.Clone(orEmpty(msg.Mentions)),
		Attachments: slices.Clone(orEmpty(msg.Attachments)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.messages[msg.ChannelID] = append(s.messages[msg.ChannelID], m)

	out := *m
	return &out, nil
}

// ListMessages implements Store.
func (s *MemoryStore) ListMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[channelID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := make([]models.Message, 0, len(all))
	for _, m := range all {
		out = append(out, s.decorateLocked(m))
	}
	return out, nil
}

// SetPinned implements Store.
func (s *MemoryStore) SetPinned(ctx context.Context, channelID, messageID string, pinned bool) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages[channelID] {
		if m.ID == messageID {
			m.IsPinned = pinned
			m.UpdatedAt = s.now().UTC()
			out := s.decorateLocked(m)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// UpsertUser implements Store.
func (s *MemoryStore) UpsertUser(ctx context.Context, u models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

// GetUser implements Store.
func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// decorateLocked copies a message and joins the sender's display fields.
func (s *MemoryStore) decorateLocked(m *models.Message) models.Message {
	out := *m
	out.Mentions = slices.Clone(m.Mentions)
	out.Attachments = slices.Clone(m.Attachments)
	if u, ok := s.users[m.SenderID]; ok {
		out.SenderName = u.Name
		out.SenderAvatar = u.AvatarURL
	}
	return out
}

func copyChannel(ch *models.Channel) models.Channel {
	c := *ch
	c.Participants = slices.Clone(ch.Participants)
	return c
}

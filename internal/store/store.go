// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

// Package store provides durable storage for chat channels, messages and the
// sender profiles used to decorate them.
//
// Two implementations are provided:
//   - MemoryStore: process-local, used by default and in tests
//   - SQLStore: database/sql backed, running on DuckDB or Postgres
//
// Message identifiers are UUIDv7 so that identifier order matches creation
// order, which keeps history reads stable when timestamps collide.
package store

import (
	"context"
	"errors"

	"github.com/tomtom215/recruitflow/internal/models"
)

var (
	// ErrNotFound is returned when a channel, message or profile does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when a team channel name is already taken.
	ErrConflict = errors.New("store: conflict")
)

// Store is the durable message log and channel catalogue.
type Store interface {
	// BootstrapChannels creates the given channels only if no channel exists
	// yet. It reports whether anything was created.
	BootstrapChannels(ctx context.Context, defaults []models.NewChannel) (bool, error)

	// ListChannels returns every team channel plus the direct channels userID
	// participates in, oldest first.
	ListChannels(ctx context.Context, userID string) ([]models.Channel, error)

	// GetChannel returns a channel with its participant list.
	GetChannel(ctx context.Context, id string) (*models.Channel, error)

	// CreateChannel persists a new channel. Team channel names are unique
	// case-insensitively.
	CreateChannel(ctx context.Context, ch models.NewChannel) (*models.Channel, error)

	// CreateMessage durably appends a message and returns it with the
	// server-assigned ID and timestamps. Sender display fields are not set.
	CreateMessage(ctx context.Context, msg models.NewMessage) (*models.Message, error)

	// ListMessages returns the newest limit messages of a channel in
	// ascending creation order, joined with sender display fields.
	ListMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error)

	// SetPinned updates the pinned flag and returns the updated message.
	SetPinned(ctx context.Context, channelID, messageID string, pinned bool) (*models.Message, error)

	// UpsertUser records the latest display profile for a user.
	UpsertUser(ctx context.Context, u models.User) error

	// GetUser returns a user's display profile.
	GetUser(ctx context.Context, id string) (*models.User, error)

	// Close releases underlying resources.
	Close() error
}

// nameKey is the uniqueness key for a channel name. Direct channels are
// keyed by their ID so they never collide.
func nameKey(ch models.NewChannel, id string) string {
	if ch.Type == models.ChannelTypeDirect {
		return "direct:" + id
	}
	return "team:" + normalizeName(ch.Name)
}

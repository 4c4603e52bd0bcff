// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package chat

import (
	"context"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/models"
)

// DefaultChannels are created on first use of an empty store.
func DefaultChannels(createdBy string) []models.NewChannel {
	return []models.NewChannel{
		{Name: "general", Description: "General team discussion", Type: models.ChannelTypeTeam, CreatedByID: createdBy},
		{Name: "hiring", Description: "Hiring updates and news", Type: models.ChannelTypeTeam, CreatedByID: createdBy},
		{Name: "random", Description: "Non-work banter", Type: models.ChannelTypeTeam, CreatedByID: createdBy},
	}
}

// CreateChannelRequest is the input to CreateChannel.
type CreateChannelRequest struct {
	Name         string
	Description  string
	Type         models.ChannelType
	Participants []string
}

// ListChannels returns every team channel plus the direct channels userID
// participates in. The default channels are created first if the store has
// no channel at all.
func (s *Service) ListChannels(ctx context.Context, userID string) ([]models.Channel, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	if s.cfg.BootstrapDefaults && !s.bootstrapped.Load() {
		created, err := s.store.BootstrapChannels(ctx, DefaultChannels(userID))
		if err != nil {
			return nil, storeError("bootstrap channels", err)
		}
		s.bootstrapped.Store(true)
		if created {
			logging.Ctx(ctx).Info().Str("user_id", userID).Msg("default channels created")
		}
	}

	channels, err := s.store.ListChannels(ctx, userID)
	if err != nil {
		return nil, storeError("list channels", err)
	}
	return channels, nil
}

// CreateChannel creates a team or direct channel. Type defaults to team.
// Direct channels always include the creator and need at least one other
// participant; team channel names must be unique.
func (s *Service) CreateChannel(ctx context.Context, creatorID string, req CreateChannelRequest) (*models.Channel, error) {
	if creatorID == "" {
		return nil, ErrUnauthenticated
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("channel name is required")
	}
	if n := utf8.RuneCountInString(name); n > s.cfg.MaxChannelNameLength {
		return nil, validationError("channel name is %d characters, maximum is %d", n, s.cfg.MaxChannelNameLength)
	}

	typ := req.Type
	if typ == "" {
		typ = models.ChannelTypeTeam
	}
	if !typ.IsValid() {
		return nil, validationError("unknown channel type %q", typ)
	}

	var participants []string
	if typ == models.ChannelTypeDirect {
		participants = directParticipants(creatorID, req.Participants)
		if len(participants) < 2 {
			return nil, validationError("direct channel needs at least one other participant")
		}
	}

	ch, err := s.store.CreateChannel(ctx, models.NewChannel{
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		Type:         typ,
		CreatedByID:  creatorID,
		Participants: participants,
	})
	if err != nil {
		return nil, storeError("create channel", err)
	}

	logging.Ctx(ctx).Info().
		Str("channel_id", ch.ID).
		Str("channel_type", string(ch.Type)).
		Str("created_by", creatorID).
		Msg("channel created")
	return ch, nil
}

// directParticipants returns the trimmed, de-duplicated participant list
// with the creator included.
func directParticipants(creatorID string, requested []string) []string {
	out := make([]string, 0, len(requested)+1)
	out = append(out, creatorID)
	for _, id := range requested {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

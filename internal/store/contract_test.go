// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tomtom215/recruitflow/internal/models"
)

var testDefaults = []models.NewChannel{
	{Name: "general", Description: "General team discussion", Type: models.ChannelTypeTeam},
	{Name: "hiring", Description: "Hiring updates and news", Type: models.ChannelTypeTeam},
	{Name: "random", Description: "Non-work banter", Type: models.ChannelTypeTeam},
}

// runStoreContract exercises behavior every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("BootstrapOnlyWhenEmpty", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.BootstrapChannels(ctx, testDefaults)
		if err != nil || !created {
			t.Fatalf("first bootstrap = %v, %v; want true, nil", created, err)
		}
		created, err = s.BootstrapChannels(ctx, testDefaults)
		if err != nil || created {
			t.Fatalf("second bootstrap = %v, %v; want false, nil", created, err)
		}

		channels, err := s.ListChannels(ctx, "alice")
		if err != nil {
			t.Fatalf("ListChannels: %v", err)
		}
		if len(channels) != 3 {
			t.Fatalf("got %d channels, want 3", len(channels))
		}
		for i, want := range []string{"general", "hiring", "random"} {
			if channels[i].Name != want || channels[i].Type != models.ChannelTypeTeam {
				t.Errorf("channel %d = %s/%s, want %s/team", i, channels[i].Name, channels[i].Type, want)
			}
		}
	})

	t.Run("TeamNameConflict", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.CreateChannel(ctx, models.NewChannel{Name: "Sourcing", Type: models.ChannelTypeTeam}); err != nil {
			t.Fatalf("CreateChannel: %v", err)
		}
		_, err := s.CreateChannel(ctx, models.NewChannel{Name: "sourcing", Type: models.ChannelTypeTeam})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("duplicate name error = %v, want ErrConflict", err)
		}
	})

	t.Run("DirectChannelVisibility", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		team, err := s.CreateChannel(ctx, models.NewChannel{Name: "general", Type: models.ChannelTypeTeam})
		if err != nil {
			t.Fatalf("create team: %v", err)
		}
		dm, err := s.CreateChannel(ctx, models.NewChannel{
			Name: "alice-bob", Type: models.ChannelTypeDirect, CreatedByID: "alice",
			Participants: []string{"bob", "alice", "alice"},
		})
		if err != nil {
			t.Fatalf("create direct: %v", err)
		}
		if len(dm.Participants) != 2 {
			t.Errorf("participants = %v, want deduplicated pair", dm.Participants)
		}

		bob, _ := s.ListChannels(ctx, "bob")
		if len(bob) != 2 {
			t.Fatalf("bob sees %d channels, want 2", len(bob))
		}
		carol, _ := s.ListChannels(ctx, "carol")
		if len(carol) != 1 || carol[0].ID != team.ID {
			t.Fatalf("carol sees %v, want only the team channel", carol)
		}

		got, err := s.GetChannel(ctx, dm.ID)
		if err != nil {
			t.Fatalf("GetChannel: %v", err)
		}
		if !got.CanAccess("alice") || !got.CanAccess("bob") || got.CanAccess("carol") {
			t.Errorf("unexpected access for %+v", got)
		}
	})

	t.Run("GetChannelNotFound", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetChannel(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("ListMessagesNewestAscending", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ch, err := s.CreateChannel(ctx, models.NewChannel{Name: "general", Type: models.ChannelTypeTeam})
		if err != nil {
			t.Fatalf("create channel: %v", err)
		}
		if err := s.UpsertUser(ctx, models.User{ID: "alice", Name: "Alice", AvatarURL: "https://a/avatar.png"}); err != nil {
			t.Fatalf("UpsertUser: %v", err)
		}

		for i := 0; i < 5; i++ {
			_, err := s.CreateMessage(ctx, models.NewMessage{
				ChannelID: ch.ID, SenderID: "alice", Text: fmt.Sprintf("msg-%d", i),
			})
			if err != nil {
				t.Fatalf("CreateMessage %d: %v", i, err)
			}
		}

		msgs, err := s.ListMessages(ctx, ch.ID, 3)
		if err != nil {
			t.Fatalf("ListMessages: %v", err)
		}
		if len(msgs) != 3 {
			t.Fatalf("got %d messages, want 3", len(msgs))
		}
		for i, want := range []string{"msg-2", "msg-3", "msg-4"} {
			if msgs[i].Text != want {
				t.Errorf("msgs[%d] = %q, want %q", i, msgs[i].Text, want)
			}
		}
		for i := 1; i < len(msgs); i++ {
			if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
				t.Errorf("messages out of order at %d", i)
			}
		}
		if msgs[0].SenderName != "Alice" || msgs[0].SenderAvatar != "https://a/avatar.png" {
			t.Errorf("sender fields = %q/%q, want joined profile", msgs[0].SenderName, msgs[0].SenderAvatar)
		}
		if msgs[0].Mentions == nil || msgs[0].Attachments == nil {
			t.Error("mentions and attachments should be empty slices, not nil")
		}
	})

	t.Run("SetPinned", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		ch, _ := s.CreateChannel(ctx, models.NewChannel{Name: "hiring", Type: models.ChannelTypeTeam})
		msg, err := s.CreateMessage(ctx, models.NewMessage{
			ChannelID: ch.ID, SenderID: "bob", Text: "offer accepted", Mentions: []string{"alice"},
		})
		if err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}

		pinned, err := s.SetPinned(ctx, ch.ID, msg.ID, true)
		if err != nil {
			t.Fatalf("SetPinned: %v", err)
		}
		if !pinned.IsPinned || pinned.Text != "offer accepted" || len(pinned.Mentions) != 1 {
			t.Errorf("pinned message = %+v", pinned)
		}

		if _, err := s.SetPinned(ctx, ch.ID, "missing", true); !errors.Is(err, ErrNotFound) {
			t.Errorf("missing message error = %v, want ErrNotFound", err)
		}
	})

	t.Run("UserProfiles", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.GetUser(ctx, "dave"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("GetUser missing = %v, want ErrNotFound", err)
		}
		_ = s.UpsertUser(ctx, models.User{ID: "dave", Name: "Dave"})
		_ = s.UpsertUser(ctx, models.User{ID: "dave", Name: "David", Role: "manager"})

		u, err := s.GetUser(ctx, "dave")
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if u.Name != "David" || u.Role != "manager" {
			t.Errorf("profile = %+v, want latest upsert", u)
		}
	})
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package store

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// newID returns a time-ordered identifier.
func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// dedupe returns ids without duplicates or empty entries, sorted.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// orEmpty keeps JSON output as [] rather than null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// stampClock hands out message creation times that never go backwards
// within a channel, even if the wall clock steps back.
type stampClock struct {
	mu   sync.Mutex
	last map[string]time.Time
}

// next returns now, or the channel's previous stamp if now is earlier.
func (c *stampClock) next(channelID string, now time.Time) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		c.last = make(map[string]time.Time)
	}
	if prev, ok := c.last[channelID]; ok && now.Before(prev) {
		now = prev
	}
	c.last[channelID] = now
	return now
}

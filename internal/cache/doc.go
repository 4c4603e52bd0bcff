// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package cache provides a bounded, thread-safe LRU cache with per-entry TTL.

The message pipeline uses it to hold sender display profiles so that
decorating a broadcast does not hit the message store for every message.

# Behavior

  - Get moves a live entry to the front; expired entries are removed lazily
  - Add evicts the least recently used entry once capacity is exceeded
  - Remove drops an entry so the next Get reloads it
  - Stats reports hits, misses and the current size

# Thread Safety

All methods are safe for concurrent use. The internal doubly linked list and
index map are guarded by a single mutex.

# Example

	profiles := cache.NewLRU[models.User](1000, time.Minute)
	if u, ok := profiles.Get(userID); ok {
	    return u
	}
*/
package cache

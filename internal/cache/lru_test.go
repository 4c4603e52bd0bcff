// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRU_GetAdd(t *testing.T) {
	c := NewLRU[string](4, time.Minute)

	if _, ok := c.Get("alice"); ok {
		t.Fatal("empty cache returned a value")
	}
	c.Add("alice", "Alice")
	got, ok := c.Get("alice")
	if !ok || got != "Alice" {
		t.Fatalf("Get(alice) = %q, %v", got, ok)
	}

	c.Add("alice", "Alice Recruiter")
	if got, _ := c.Get("alice"); got != "Alice Recruiter" {
		t.Errorf("after refresh Get(alice) = %q", got)
	}

	hits, misses, size := c.Stats()
	if hits != 2 || misses != 1 || size != 1 {
		t.Errorf("Stats() = %d, %d, %d; want 2, 1, 1", hits, misses, size)
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int](2, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a") // b is now the oldest
	c.Add("c", 3)

	tests := []struct {
		key  string
		want bool
	}{
		{"a", true},
		{"b", false},
		{"c", true},
	}
	for _, tt := range tests {
		if _, ok := c.Get(tt.key); ok != tt.want {
			t.Errorf("Get(%q) present = %v, want %v", tt.key, ok, tt.want)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLRU_Expiry(t *testing.T) {
	c := NewLRU[string](4, time.Second)
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Add("alice", "Alice")
	now = now.Add(500 * time.Millisecond)
	if _, ok := c.Get("alice"); !ok {
		t.Fatal("entry expired early")
	}

	now = now.Add(time.Second)
	if _, ok := c.Get("alice"); ok {
		t.Fatal("expired entry returned")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not collected, Len() = %d", c.Len())
	}
}

func TestLRU_Remove(t *testing.T) {
	c := NewLRU[string](0, 0)
	c.Add("alice", "Alice")

	if !c.Remove("alice") {
		t.Error("Remove(alice) = false")
	}
	if c.Remove("alice") {
		t.Error("second Remove(alice) = true")
	}
	if c.capacity != defaultCapacity || c.ttl != defaultTTL {
		t.Errorf("defaults not applied: %d, %v", c.capacity, c.ttl)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU[int](64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("user-%d", (g*200+i)%100)
				c.Add(key, i)
				c.Get(key)
				if i%10 == 0 {
					c.Remove(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package authz

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/recruitflow/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// setupEnforcer creates an enforcer with the embedded policy.
func setupEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	enforcer, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return enforcer
}

func TestEmbeddedPolicy(t *testing.T) {
	e := setupEnforcer(t)

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{"member", ObjectDirectChannel, ActionCreate, true},
		{"member", ObjectTeamChannel, ActionCreate, false},
		{"member", ObjectMessage, ActionPin, false},
		{"member", ObjectUserNotification, ActionSend, true},
		{"member", ObjectGlobalNotification, ActionSend, false},
		{"member", ObjectActivity, ActionPublish, false},

		{"recruiter", ObjectTeamChannel, ActionCreate, true},
		{"recruiter", ObjectDirectChannel, ActionCreate, true},
		{"recruiter", ObjectMessage, ActionPin, true},
		{"recruiter", ObjectActivity, ActionPublish, true},
		{"recruiter", ObjectPresence, ActionRead, true},
		{"recruiter", ObjectGlobalNotification, ActionSend, false},

		{"admin", ObjectGlobalNotification, ActionSend, true},
		{"admin", ObjectTeamChannel, ActionCreate, true},
		{"admin", "anything", "whatever", true},

		{"unknown", ObjectDirectChannel, ActionCreate, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforce_EmptyRoleUsesDefault(t *testing.T) {
	e, err := NewEnforcer(&EnforcerConfig{DefaultRole: "recruiter"})
	if err != nil {
		t.Fatal(err)
	}
	if !e.Allowed("", ObjectTeamChannel, ActionCreate) {
		t.Error("empty role should fall back to recruiter")
	}
}

func TestEnforce_CacheInvalidatedByPolicyChange(t *testing.T) {
	e, err := NewEnforcer(&EnforcerConfig{DefaultRole: "member", CacheTTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	if e.Allowed("member", ObjectMessage, ActionPin) {
		t.Fatal("member should not pin before policy change")
	}
	if e.cache.size() != 1 {
		t.Errorf("cache size = %d, want 1", e.cache.size())
	}

	if _, err := e.AddPolicy("member", ObjectMessage, ActionPin); err != nil {
		t.Fatal(err)
	}
	if !e.Allowed("member", ObjectMessage, ActionPin) {
		t.Error("cached denial survived AddPolicy")
	}

	if _, err := e.RemovePolicy("member", ObjectMessage, ActionPin); err != nil {
		t.Fatal(err)
	}
	if e.Allowed("member", ObjectMessage, ActionPin) {
		t.Error("cached allow survived RemovePolicy")
	}
}

func TestNewEnforcer_PolicyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.csv")
	policy := "p, member, channel:team, create\n"
	if err := os.WriteFile(path, []byte(policy), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if !e.Allowed("member", ObjectTeamChannel, ActionCreate) {
		t.Error("file policy not applied")
	}
	if e.Allowed("admin", ObjectGlobalNotification, ActionSend) {
		t.Error("embedded policy leaked into file-backed enforcer")
	}
	if len(e.GetPolicy()) != 1 {
		t.Errorf("GetPolicy() = %v", e.GetPolicy())
	}
}

func TestLoadEmbeddedPolicy_Malformed(t *testing.T) {
	e := setupEnforcer(t)
	for _, policy := range []string{"p, member, only-two", "g, member", "x, a, b, c"} {
		if err := loadEmbeddedPolicy(e.enforcer, policy); err == nil {
			t.Errorf("loadEmbeddedPolicy(%q) expected error", policy)
		}
	}
}

func TestDecisionCache_Expiry(t *testing.T) {
	c := newDecisionCache(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.set("member", "message", "pin", true)
	if allowed, ok := c.get("member", "message", "pin"); !ok || !allowed {
		t.Fatalf("get() = %v, %v", allowed, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get("member", "message", "pin"); ok {
		t.Error("expired decision returned")
	}

	c.clear()
	if c.size() != 0 {
		t.Errorf("size after clear = %d", c.size())
	}
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitRejectsWithEnvelope(t *testing.T) {
	m := NewChiMiddleware(DefaultChiMiddlewareConfig())
	h := m.RateLimitCustom("test-burst", RateLimitConfig{Requests: 2, Window: time.Minute})(okHandler())

	before := testutil.ToFloat64(metrics.APIRateLimitRejections.WithLabelValues("test-burst"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/channels", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if i == 2 {
			expectError(t, rec, http.StatusTooManyRequests, ErrCodeTooManyRequests)
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("codes = %v, first two should pass", codes)
	}

	if got := testutil.ToFloat64(metrics.APIRateLimitRejections.WithLabelValues("test-burst")) - before; got != 1 {
		t.Errorf("rejections recorded = %v, want 1", got)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := ChiMiddlewareConfigFromSecurity(&config.SecurityConfig{
		RateLimitReqs:     1,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: true,
		CORSOrigins:       []string{"*"},
	})
	h := NewChiMiddleware(cfg).RateLimit()(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat/channels", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d with limiting disabled", i, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	h := NewChiMiddleware(cfg).CORS()(okHandler())

	tests := []struct {
		origin    string
		wantAllow string
	}{
		{"http://localhost:3000", "http://localhost:3000"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat/channels", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
			t.Errorf("origin %s: allow = %q, want %q", tt.origin, got, tt.wantAllow)
		}
	}
}

func TestAPISecurityHeadersHSTS(t *testing.T) {
	h := APISecurityHeaders()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/channels", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS should be set behind an https proxy")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("X-Frame-Options should be DENY")
	}
}

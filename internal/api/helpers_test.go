// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/recruitflow/internal/auth"
	"github.com/tomtom215/recruitflow/internal/authz"
	"github.com/tomtom215/recruitflow/internal/chat"
	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/inbox"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
	"github.com/tomtom215/recruitflow/internal/store"
	ws "github.com/tomtom215/recruitflow/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

const testSecret = "test-secret-that-is-at-least-32-characters-long"

type testServer struct {
	handler http.Handler
	jwt     *auth.JWTManager
	store   *store.MemoryStore
	core    *realtime.Hub
	hub     *ws.Hub
	inbox   *inbox.Inbox
	general *models.Channel
}

type serverOption func(*Dependencies)

// newTestServer wires the full router over a memory store, an in-memory
// inbox and the embedded role policy. The websocket hub is running and a
// "general" team channel exists.
func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	cfg := &config.Config{
		Security: config.SecurityConfig{
			JWTSecret:         testSecret,
			SessionTimeout:    time.Hour,
			DefaultRole:       "member",
			CORSOrigins:       []string{"http://localhost:3000"},
			RateLimitDisabled: true,
		},
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}

	st := store.NewMemoryStore()
	core := realtime.NewHub()
	chatSvc := chat.NewService(st, core.Router, chat.DefaultConfig())

	general, err := st.CreateChannel(context.Background(), models.NewChannel{Name: "general", Type: models.ChannelTypeTeam})
	if err != nil {
		t.Fatal(err)
	}

	box, err := inbox.Open(&config.InboxConfig{Enabled: true, InMemory: true, TTL: time.Hour})
	if err != nil {
		t.Fatalf("inbox.Open: %v", err)
	}
	t.Cleanup(func() { _ = box.Close() })

	hub := ws.NewHub(core, ws.NewDispatcher(core, chatSvc, enforcer), ws.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	deadline := time.Now().Add(2 * time.Second)
	for !hub.Running() {
		if time.Now().After(deadline) {
			t.Fatal("hub did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	authMW := auth.NewMiddleware(jwtManager, WriteError)
	authMW.OnAuthenticated(func(ctx context.Context, u models.User) {
		_ = chatSvc.RecordProfile(ctx, u)
	})

	deps := Dependencies{
		Config:     cfg,
		Chat:       chatSvc,
		Core:       core,
		Hub:        hub,
		Auth:       authMW,
		Authorizer: enforcer,
		Inbox:      box,
		Store:      st,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	router := NewRouter(
		NewHandler(deps),
		authMW,
		authz.NewMiddleware(enforcer, WriteError),
		NewChiMiddleware(ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)

	return &testServer{
		handler: router.SetupChi(),
		jwt:     jwtManager,
		store:   st,
		core:    core,
		hub:     hub,
		inbox:   box,
		general: general,
	}
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(models.User{ID: userID, Name: userID, Role: role})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return tok
}

// do sends a request; an empty token sends no Authorization header.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope %q: %v", rec.Body.String(), err)
	}
	return env
}

// decodeData decodes a successful envelope's data into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) envelope {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success, got %+v", env.Error)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return env
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}

// failingPinger reports a lost database connection.
type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("sql: database is closed") }

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/tomtom215/recruitflow/internal/api"
	"github.com/tomtom215/recruitflow/internal/auth"
	"github.com/tomtom215/recruitflow/internal/authz"
	"github.com/tomtom215/recruitflow/internal/chat"
	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/eventbus"
	"github.com/tomtom215/recruitflow/internal/inbox"
	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
	"github.com/tomtom215/recruitflow/internal/store"
	"github.com/tomtom215/recruitflow/internal/supervisor"
	"github.com/tomtom215/recruitflow/internal/supervisor/services"
	ws "github.com/tomtom215/recruitflow/internal/websocket"
)

//nolint:gocyclo // sequential component wiring
func runServe(parent context.Context, cfg *config.Config) error {
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Bool("inbox_enabled", cfg.Inbox.Enabled).
		Msg("Starting RecruitFlow")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("open message store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing message store")
		}
	}()

	core := realtime.NewHub()
	chatSvc := chat.NewService(st, core.Router, chat.ConfigFromChat(&cfg.Chat))

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		PolicyPath:  cfg.Security.PolicyPath,
		DefaultRole: cfg.Security.DefaultRole,
		CacheTTL:    5 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("init authorization: %w", err)
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("init jwt: %w", err)
	}
	authMW := auth.NewMiddleware(jwtManager, api.WriteError)
	authMW.OnAuthenticated(func(ctx context.Context, u models.User) {
		if err := chatSvc.RecordProfile(ctx, u); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", u.ID).Msg("Failed to record user profile")
		}
	})

	dispatcher := ws.NewDispatcher(core, chatSvc, enforcer)
	hub := ws.NewHub(core, dispatcher, ws.ConfigFromRealtime(&cfg.Realtime))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	deps := api.Dependencies{
		Config:     cfg,
		Chat:       chatSvc,
		Core:       core,
		Hub:        hub,
		Auth:       authMW,
		Authorizer: enforcer,
	}
	if p, ok := st.(api.Pinger); ok {
		deps.Store = p
	}

	if cfg.Inbox.Enabled {
		box, err := inbox.Open(&cfg.Inbox)
		if err != nil {
			return fmt.Errorf("open notification inbox: %w", err)
		}
		defer func() {
			if err := box.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing notification inbox")
			}
		}()
		core.Presence.SetDropHandler(box.Enqueue)
		deps.Inbox = box
		tree.AddStorageService(box)
	}

	if cfg.NATS.Enabled {
		bus, err := eventbus.Open(&cfg.NATS, core)
		if err != nil {
			return fmt.Errorf("connect event bus: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := bus.Close(closeCtx); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
		chatSvc.SetPublisher(bus.Publisher)
		dispatcher.SetPublisher(bus.Publisher)
		deps.EventBusHealthy = bus.Healthy
		tree.AddMessagingService(bus.Relay)
		logging.Info().Str("instance_id", cfg.NATS.InstanceID).Str("prefix", cfg.NATS.SubjectPrefix).Msg("Event bus connected")
	}

	tree.AddMessagingService(services.NewHubService(hub))

	router := api.NewRouter(
		api.NewHandler(deps),
		authMW,
		authz.NewMiddleware(enforcer, api.WriteError),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)
	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, stopping services")
		serveErr = <-errCh
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", serveErr)
	}
	logging.Info().Msg("RecruitFlow stopped")
	return nil
}

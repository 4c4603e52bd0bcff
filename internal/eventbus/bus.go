// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tomtom215/recruitflow/internal/config"
	"github.com/tomtom215/recruitflow/internal/realtime"
)

// Bus bundles the publisher, the relay and, optionally, an embedded server.
type Bus struct {
	Publisher *Publisher
	Relay     *Relay

	server *EmbeddedServer
}

// Open connects to NATS (starting an embedded server first when configured)
// and wires a publisher and a relay for hub. cfg.InstanceID is filled in
// when empty.
func Open(cfg *config.NATSConfig, hub *realtime.Hub) (*Bus, error) {
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.Must(uuid.NewV7()).String()
	}

	b := &Bus{}
	if cfg.EmbeddedServer {
		srv, err := NewEmbeddedServer(cfg)
		if err != nil {
			return nil, err
		}
		b.server = srv
		cfg.URL = srv.ClientURL()
	}

	logger := NewLogger()
	pub, err := NewNATSPublisher(cfg, logger)
	if err != nil {
		b.shutdownServer()
		return nil, err
	}
	sub, err := NewNATSSubscriber(cfg, logger)
	if err != nil {
		_ = pub.Close()
		b.shutdownServer()
		return nil, err
	}

	b.Publisher = NewPublisher(pub, PublisherConfig{
		SubjectPrefix: cfg.SubjectPrefix,
		Source:        cfg.InstanceID,
		Breaker:       DefaultBreakerConfig(),
	})
	b.Relay = NewRelay(sub, hub, RelayConfig{
		SubjectPrefix: cfg.SubjectPrefix,
		Source:        cfg.InstanceID,
	})
	return b, nil
}

// Healthy reports whether the bus can publish and the relay is subscribed.
func (b *Bus) Healthy() bool {
	if b.server != nil && !b.server.Running() {
		return false
	}
	return b.Publisher.Healthy() && b.Relay.Subscribed()
}

// Close stops the publisher, the relay subscriber and the embedded server.
func (b *Bus) Close(ctx context.Context) error {
	var errs []error
	if err := b.Publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := b.Relay.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}
	if b.server != nil {
		if err := b.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown NATS server: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) shutdownServer() {
	if b.server != nil {
		_ = b.server.Shutdown(context.Background())
	}
}

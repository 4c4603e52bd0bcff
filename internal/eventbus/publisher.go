// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
	"github.com/tomtom215/recruitflow/internal/models"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("event publisher is closed")

// BreakerConfig configures the publish circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig trips after five consecutive failures and probes
// again after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "eventbus-publish",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// NewCircuitBreaker builds a breaker that reports its transitions to metrics.
func NewCircuitBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})
}

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	// SubjectPrefix namespaces every topic.
	SubjectPrefix string
	// Source is stamped on each message so the local relay can skip it.
	Source  string
	Breaker BreakerConfig
}

// Publisher publishes domain events to the bus behind a circuit breaker.
// It satisfies both the chat pipeline's and the socket dispatcher's
// publisher interfaces.
type Publisher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	prefix    string
	source    string

	mu     sync.RWMutex
	closed bool
}

// NewPublisher wraps a Watermill publisher.
func NewPublisher(pub message.Publisher, cfg PublisherConfig) *Publisher {
	if cfg.Breaker.Name == "" {
		cfg.Breaker = DefaultBreakerConfig()
	}
	return &Publisher{
		publisher: pub,
		breaker:   NewCircuitBreaker(cfg.Breaker),
		prefix:    cfg.SubjectPrefix,
		source:    cfg.Source,
	}
}

// Source returns the source identifier stamped on outgoing messages.
func (p *Publisher) Source() string {
	return p.source
}

// Healthy reports whether the publisher is open and its breaker is not tripped.
func (p *Publisher) Healthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed && p.breaker.State() != gobreaker.StateOpen
}

// PublishMessageCreated publishes a persisted chat message.
func (p *Publisher) PublishMessageCreated(ctx context.Context, msg *models.Message) error {
	return p.publishJSON(ctx, TopicMessageCreated, msg)
}

// PublishMessagePinned publishes a pin state change.
func (p *Publisher) PublishMessagePinned(ctx context.Context, msg *models.Message) error {
	return p.publishJSON(ctx, TopicMessagePinned, msg)
}

// PublishActivity publishes an activity feed entry.
func (p *Publisher) PublishActivity(ctx context.Context, a *models.Activity) error {
	return p.publishJSON(ctx, TopicActivity, a)
}

// PublishStageChange publishes a candidate pipeline stage change.
func (p *Publisher) PublishStageChange(ctx context.Context, s *models.StageChange) error {
	return p.publishJSON(ctx, TopicStageChanged, s)
}

// PublishNotification publishes a notification.
func (p *Publisher) PublishNotification(ctx context.Context, n *models.Notification) error {
	return p.publishJSON(ctx, TopicNotification, n)
}

func (p *Publisher) publishJSON(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	msg := message.NewMessage(uuid.Must(uuid.NewV7()).String(), payload)
	msg.Metadata.Set(MetadataSource, p.source)
	msg.Metadata.Set(MetadataTopic, topic)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	msg.SetContext(ctx)
	return p.Publish(topic, msg)
}

// Publish sends msg on the subject for topic through the circuit breaker.
// Chat topics share the StreamChat subject.
func (p *Publisher) Publish(topic string, msg *message.Message) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	subject := Subject(p.prefix, streamOf(topic))
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(subject, msg)
	})
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close shuts down the underlying publisher. It is safe to call twice.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

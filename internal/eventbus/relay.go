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
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/recruitflow/internal/logging"
	"github.com/tomtom215/recruitflow/internal/metrics"
	"github.com/tomtom215/recruitflow/internal/models"
	"github.com/tomtom215/recruitflow/internal/realtime"
)

// Consume outcomes recorded in metrics.
const (
	outcomeRelayed   = "relayed"
	outcomeSkipped   = "skipped"
	outcomeMalformed = "malformed"
)

var errMalformed = errors.New("malformed event payload")

// RelayConfig configures a Relay.
type RelayConfig struct {
	SubjectPrefix string
	// Source identifies this node; messages carrying it are ignored.
	Source string
}

// Relay replays bus events into the local realtime hub.
type Relay struct {
	subscriber message.Subscriber
	hub        *realtime.Hub
	prefix     string
	source     string

	subscribed atomic.Bool
}

// NewRelay creates a relay reading from sub and delivering into hub.
func NewRelay(sub message.Subscriber, hub *realtime.Hub, cfg RelayConfig) *Relay {
	return &Relay{
		subscriber: sub,
		hub:        hub,
		prefix:     cfg.SubjectPrefix,
		source:     cfg.Source,
	}
}

// String names the relay in supervisor logs.
func (r *Relay) String() string {
	return "eventbus-relay"
}

// Close closes the underlying subscriber, ending Serve.
func (r *Relay) Close() error {
	return r.subscriber.Close()
}

// Subscribed reports whether every topic subscription is active.
func (r *Relay) Subscribed() bool {
	return r.subscribed.Load()
}

// Serve subscribes to the relayed subjects and processes messages until ctx
// is cancelled or the subscriber closes every stream. Each subject is
// consumed in order on its own goroutine.
func (r *Relay) Serve(ctx context.Context) error {
	streams := make(map[string]<-chan *message.Message, len(relayedStreams))
	for _, stream := range relayedStreams {
		ch, err := r.subscriber.Subscribe(ctx, Subject(r.prefix, stream))
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", stream, err)
		}
		streams[stream] = ch
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)

	logging.Info().Str("prefix", r.prefix).Str("source", r.source).Msg("event relay subscribed")

	var wg sync.WaitGroup
	for stream, ch := range streams {
		wg.Add(1)
		go func(stream string, ch <-chan *message.Message) {
			defer wg.Done()
			for msg := range ch {
				r.handle(stream, msg)
			}
		}(stream, ch)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("event relay subscriptions closed")
}

// handle acks every message; a payload that cannot be decoded will not
// decode on redelivery either.
func (r *Relay) handle(stream string, msg *message.Message) {
	defer msg.Ack()

	topic := stream
	if t := msg.Metadata.Get(MetadataTopic); stream == StreamChat && streamOf(t) == StreamChat {
		topic = t
	}

	if src := msg.Metadata.Get(MetadataSource); src != "" && src == r.source {
		metrics.RecordEventConsume(topic, outcomeSkipped)
		return
	}

	delivered, err := r.deliver(topic, msg.Payload)
	if err != nil {
		metrics.RecordEventConsume(topic, outcomeMalformed)
		logging.Warn().
			Err(err).
			Str("topic", topic).
			Str("message_uuid", msg.UUID).
			Str("correlation_id", middleware.MessageCorrelationID(msg)).
			Msg("dropping bus event")
		return
	}

	metrics.RecordEventConsume(topic, outcomeRelayed)
	logging.Debug().
		Str("topic", topic).
		Str("message_uuid", msg.UUID).
		Str("source", msg.Metadata.Get(MetadataSource)).
		Int("delivered", delivered).
		Msg("bus event relayed")
}

func (r *Relay) deliver(topic string, payload []byte) (int, error) {
	switch topic {
	case TopicMessageCreated, TopicMessagePinned:
		var m models.Message
		if err := decode(payload, &m); err != nil {
			return 0, err
		}
		if m.ChannelID == "" {
			return 0, fmt.Errorf("%w: missing channel id", errMalformed)
		}
		evType := realtime.EventMessageReceived
		if topic == TopicMessagePinned {
			evType = realtime.EventMessagePinned
		}
		return r.hub.Router.Broadcast(m.ChannelID, realtime.Event{Type: evType, Data: &m}), nil

	case TopicActivity:
		var a models.Activity
		if err := decode(payload, &a); err != nil {
			return 0, err
		}
		return r.hub.Presence.BroadcastActivity(a), nil

	case TopicStageChanged:
		var s models.StageChange
		if err := decode(payload, &s); err != nil {
			return 0, err
		}
		if s.CandidateID == "" {
			return 0, fmt.Errorf("%w: missing candidate id", errMalformed)
		}
		return r.hub.Presence.BroadcastStageChange(s), nil

	case TopicNotification:
		var n models.Notification
		if err := decode(payload, &n); err != nil {
			return 0, err
		}
		if n.IsGlobal() {
			return r.hub.Presence.NotifyAll(n), nil
		}
		return r.hub.Presence.Notify(n.UserID, n), nil
	}
	return 0, fmt.Errorf("%w: unknown topic %q", errMalformed, topic)
}

func decode(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the messaging service:
// - API endpoint latency and throughput
// - WebSocket connections and event fan-out
// - Chat pipeline (persist-then-broadcast)
// - Event bus and offline inbox

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Current number of registered WebSocket connections",
		},
	)

	WSEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_received_total",
			Help: "Total number of inbound socket events by type",
		},
		[]string{"type"},
	)

	WSEventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_rejected_total",
			Help: "Total number of inbound socket events rejected",
		},
		[]string{"reason"}, // decode, validation, rate_limited, unknown_type, handler
	)

	WSEventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_sent_total",
			Help: "Total number of outbound socket events queued for delivery",
		},
		[]string{"type"},
	)

	WSEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_dropped_total",
			Help: "Total number of outbound socket events that could not be queued",
		},
		[]string{"type", "reason"},
	)

	ChannelSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_channel_subscriptions",
			Help: "Current number of (connection, channel) subscriptions",
		},
	)

	// Presence Metrics
	OnlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_online_users",
			Help: "Current number of users marked online",
		},
	)

	NotificationsDelivered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Total number of notification deliveries to live connections",
		},
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Total number of notifications for users with no live connection",
		},
	)

	// Chat Pipeline Metrics
	ChatMessagesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_persisted_total",
			Help: "Total number of chat messages stored",
		},
	)

	ChatPipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_pipeline_failures_total",
			Help: "Total number of chat send failures by stage",
		},
		[]string{"stage"}, // validation, forbidden, not_found, storage
	)

	ChatSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_send_duration_seconds",
			Help:    "Duration of the persist-then-broadcast pipeline in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	ChatBroadcastRecipients = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_broadcast_recipients",
			Help:    "Number of subscribed connections reached per chat broadcast",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	// Event Bus Metrics
	EventBusPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_published_total",
			Help: "Total number of event bus publish attempts",
		},
		[]string{"topic", "outcome"}, // outcome: success, failure, rejected
	)

	EventBusConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_messages_consumed_total",
			Help: "Total number of event bus messages consumed",
		},
		[]string{"topic", "outcome"}, // outcome: relayed, skipped, invalid
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Offline Inbox Metrics
	InboxStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inbox_notifications_stored_total",
			Help: "Total number of notifications parked for offline users",
		},
	)

	InboxDrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inbox_notifications_acknowledged_total",
			Help: "Total number of parked notifications acknowledged",
		},
	)

	InboxErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_errors_total",
			Help: "Total number of offline inbox failures",
		},
		[]string{"operation"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordChatSend records the outcome of one send through the chat pipeline.
// An empty failedStage means the message was persisted and broadcast.
func RecordChatSend(duration time.Duration, recipients int, failedStage string) {
	ChatSendDuration.Observe(duration.Seconds())
	if failedStage != "" {
		ChatPipelineFailures.WithLabelValues(failedStage).Inc()
		return
	}
	ChatMessagesPersisted.Inc()
	ChatBroadcastRecipients.Observe(float64(recipients))
}

// RecordEventPublish records an event bus publish attempt
func RecordEventPublish(topic string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	EventBusPublished.WithLabelValues(topic, outcome).Inc()
}

// RecordEventConsume records how a consumed bus message was handled
func RecordEventConsume(topic, outcome string) {
	EventBusConsumed.WithLabelValues(topic, outcome).Inc()
}

// RecordInboundEvent records an inbound socket event. An empty reason means it
// was accepted.
func RecordInboundEvent(eventType, rejectReason string) {
	if rejectReason != "" {
		WSEventsRejected.WithLabelValues(rejectReason).Inc()
		return
	}
	WSEventsReceived.WithLabelValues(eventType).Inc()
}

// RecordCircuitBreakerTransition updates the circuit breaker gauges after a state change.
// States follow gobreaker ordering: 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

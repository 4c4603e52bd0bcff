// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package metrics provides Prometheus metrics collection for the messaging service.

All collectors are registered on the default registry through promauto and are
exposed by the API router at /metrics in Prometheus text format:

	curl http://localhost:5000/metrics

# Available Metrics

HTTP:
  - api_requests_total{method, endpoint, status_code}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests

WebSocket and fan-out:
  - websocket_connections_active
  - websocket_events_received_total{type}
  - websocket_events_rejected_total{reason}
  - websocket_events_sent_total{type}
  - websocket_events_dropped_total{type, reason}
  - chat_channel_subscriptions
  - presence_online_users
  - notifications_delivered_total
  - notifications_dropped_total

Chat pipeline:
  - chat_messages_persisted_total
  - chat_pipeline_failures_total{stage}
  - chat_send_duration_seconds
  - chat_broadcast_recipients

Event bus and inbox:
  - eventbus_messages_published_total{topic, outcome}
  - eventbus_messages_consumed_total{topic, outcome}
  - circuit_breaker_state{name}
  - circuit_breaker_state_transitions_total{name, from_state, to_state}
  - inbox_notifications_stored_total
  - inbox_notifications_acknowledged_total
  - inbox_errors_total{operation}

# Usage

	start := time.Now()
	// ... handle request
	metrics.RecordAPIRequest("GET", "/api/v1/chat/channels", "200", time.Since(start))

The Record* helpers are safe for concurrent use.
*/
package metrics

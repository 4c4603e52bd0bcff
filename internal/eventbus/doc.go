// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package eventbus connects the messaging service to the rest of the agency
platform over NATS, using Watermill as the messaging abstraction.

Outbound, the Publisher forwards persisted chat messages, pins, activities,
stage changes and notifications. Publishing is best-effort: callers log a
failure and carry on, and a gobreaker circuit breaker stops a dead broker
from adding latency to every send.

Inbound, the Relay subscribes to activity, stage change and notification
subjects published by other services (for example the ATS pipeline) and to
chat events published by other nodes, and replays them into the local
realtime hub. Every message carries a "source" metadata key; the relay drops
messages stamped with its own source so a node never re-delivers its own
broadcasts.

Subjects are namespaced by a configurable prefix:

	<prefix>.chat.messages    chat.message_created and chat.message_pinned
	<prefix>.activity
	<prefix>.stage_changed
	<prefix>.notification

Both chat topics share one subject and are told apart by the "topic"
metadata key. NATS preserves order per subject, and the relay consumes each
subject on a single goroutine, so a pin never overtakes the message it pins
and remote nodes replay a channel's messages in storage order.

For single-binary deployments an in-process NATS server can be started with
NewEmbeddedServer. The bus runs on core NATS; JetStream persistence is not
needed because missed notifications are kept by the inbox package.
*/
package eventbus

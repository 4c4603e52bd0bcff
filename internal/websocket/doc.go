// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package websocket is the socket transport of the realtime core.

It adapts gorilla/websocket connections to realtime.Conn and feeds inbound
client events through a Dispatcher into the connection registry, the channel
router, presence and the chat message pipeline.

Key Components:

  - Hub: accepts authenticated clients, tracks them, and closes them all on shutdown
  - Client: one connection with a read goroutine and a write goroutine
  - Dispatcher: decodes, validates and routes inbound events

Each client has two goroutines:
  - readPump: reads frames in order, applies the inbound rate limit, dispatches
  - writePump: drains the send queue, writes pings

Wire Format:

Every frame in both directions is a JSON envelope:

	{"type": "join-channel", "data": {"channelId": "..."}}

Client events: user-online, join-channel, leave-channel, send-message,
send-notification, activity-log, candidate-stage-changed, ping.

Server events: message-received, message-pinned, notification-received,
activity-created, stage-updated, error, pong.

Messages sent over the socket go through chat.Service.SendMessage exactly
like REST messages: they are persisted before they are broadcast, and the
sender is the authenticated connection owner.

Slow Clients:

Send never blocks. A client whose send buffer is full is disconnected, so one
stalled browser tab cannot hold up channel fan-out.

Thread Safety:

Hub methods are safe for concurrent use. Lock order is Hub, then the
realtime registry.
*/
package websocket

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package supervisor runs RecruitFlow's long-lived services under a suture v4
supervisor tree.

The tree has three layers, each restarted independently:

	recruitflow
	├── storage-layer
	│   └── notification-inbox   (if INBOX_ENABLED)
	├── messaging-layer
	│   ├── websocket-hub
	│   └── eventbus-relay       (if NATS_ENABLED)
	└── api-layer
	    └── http-server

A relay that loses its NATS subscription is restarted with backoff while
sockets stay connected; a panicking inbox worker does not take the HTTP
server down with it.

Supervisor events are logged through sutureslog, bridged onto the zerolog
logger by logging.NewSlogLogger.
*/
package supervisor

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package api provides the HTTP layer of RecruitFlow: the chat REST endpoints,
the notification inbox, presence, health, metrics and the socket upgrade.

Key Components:

  - Router: chi route table and middleware stack
  - Handler: request handlers, split by area across handlers_*.go
  - ResponseWriter: the APIResponse envelope used by every JSON endpoint

Endpoints:

	GET    /health
	GET    /metrics
	GET    /ws                                           socket upgrade (token in header, query or cookie)
	GET    /api/v1/chat/channels
	POST   /api/v1/chat/channels
	GET    /api/v1/chat/channels/{id}/messages?limit=N
	POST   /api/v1/chat/channels/{id}/messages
	PUT    /api/v1/chat/channels/{id}/messages/{messageId}/pin
	GET    /api/v1/notifications
	DELETE /api/v1/notifications/{id}
	GET    /api/v1/presence/online

Error Mapping:

Chat service errors map to statuses and codes as follows:

	chat.ErrUnauthenticated  401 UNAUTHORIZED
	chat.ErrValidation       400 VALIDATION_ERROR
	chat.ErrNotFound         404 NOT_FOUND
	chat.ErrForbidden        403 FORBIDDEN
	chat.ErrConflict         409 CONFLICT
	chat.ErrStorage          500 DATABASE_ERROR

Messages posted over REST take the same persist-then-broadcast path as
messages sent over the socket, so socket subscribers of the channel receive
them as message-received events.
*/
package api

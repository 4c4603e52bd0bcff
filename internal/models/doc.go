// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package models defines the data structures shared by the RecruitFlow
messaging service: chat channels and messages, user profiles, and the
notification, activity and candidate stage-change payloads relayed to
connected clients.

Database Models:
  - Channel: a team or direct broadcast group
  - Message: an immutable chat message (only IsPinned changes)
  - User: display profile used to decorate messages with sender name/avatar

Relay Payloads:
  - Notification: targeted or global notification
  - Activity: global activity feed entry
  - StageChange: candidate pipeline stage transition

JSON field names follow the snake_case wire format the web client already
consumes (channel_id, sender_name, message_text, ...).
*/
package models

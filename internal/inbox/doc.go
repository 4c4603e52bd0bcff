// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

// Package inbox keeps notifications that could not be delivered live because
// the recipient had no open socket. Presence hands undeliverable targeted
// notifications to Inbox.Enqueue; the user fetches them over REST and
// acknowledges them one by one. Entries expire after a TTL.
//
// Storage is BadgerDB, on disk or in memory.
package inbox

// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package services adapts RecruitFlow components to the suture v4 Service
interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService turns the blocking ListenAndServe/Shutdown pair of an
*http.Server into a context-driven Serve with a bounded graceful shutdown.

HubService runs the websocket hub. On cancellation the hub closes every
client, which unregisters each connection from the registry, the channel
router and presence.

Components that already expose Serve(ctx) error, such as the notification
inbox and the event relay, are added to the tree directly.
*/
package services

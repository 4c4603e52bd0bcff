// RecruitFlow - Recruitment Agency Real-Time Messaging Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/recruitflow

/*
Package middleware provides HTTP middleware shared by every route.

Key Components:

  - RequestID: X-Request-ID propagation into the response and the logging context
  - PrometheusMetrics: request count, latency and in-flight gauges labelled by chi route pattern

Both are plain func(http.Handler) http.Handler and are installed with chi's
r.Use. PrometheusMetrics must sit inside the chi router so the route pattern
is known when the request completes, and it passes Hijack through so the
websocket upgrade keeps working behind it.
*/
package middleware

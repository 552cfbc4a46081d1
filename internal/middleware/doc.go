// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

/*
Package middleware provides HTTP middleware shared by every route.

Key Components:

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge per route

Both use the http.HandlerFunc middleware shape; the api package adapts them
for chi with its chiMiddleware helper:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

PrometheusMetrics labels requests with the chi route pattern
(/api/rooms/{name}/messages) rather than the raw path so room names never
become label values. Its response writer implements http.Hijacker so the
WebSocket upgrade on /ws works behind it.
*/
package middleware

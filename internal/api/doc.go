// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

/*
Package api provides the HTTP and WebSocket surface of Cycles.

Key Components:

  - Router: chi route table and middleware stack (SetupChi)
  - Handler: request handlers delegating to community.Service
  - ChiMiddleware: CORS and per-IP rate limits from go-chi/cors and go-chi/httprate

Routes:

	POST /api/auth/register             201 {message, token, user}
	POST /api/auth/login                200 {message, token, user}
	GET  /api/auth/me                   bearer, 200 {user}
	GET  /api/auth/verify-email?token=  200 {message}
	POST /api/auth/resend-verification  200 {message}
	GET  /api/rooms                     200 {rooms}
	GET  /api/rooms/{name}/messages     200 {messages}, oldest first
	POST /api/rooms/{name}/join         bearer, 200 {message}
	POST /api/contact                   201 {message}
	GET  /api/contacts                  200 {contacts}
	POST /api/courses/enroll            bearer, 201 {message, enrollment}
	GET  /api/courses/my-courses        bearer, 200 {enrollments}
	GET  /ws                            chat WebSocket
	GET  /health/live, /health/ready    probes
	GET  /metrics                       Prometheus exposition

Errors:

Every failure is written as {"error": "<message>"}. Service errors map onto
status codes by kind: validation 400, auth 401, not found 404 and
persistence 500. Request bodies are validated with go-playground/validator
and only the first failing field is reported.

Usage Example:

	handler := api.NewHandler(service, hub, cfg)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager, st), cfg)
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api

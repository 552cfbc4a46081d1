// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cycles/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Applied to all routes in order
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	// Health
	r.Route("/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		// Authentication; credential endpoints get the strict limiter
		r.Route("/auth", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitAuth()).Post("/register", router.handler.Register)
			r.With(router.chiMiddleware.RateLimitAuth()).Post("/login", router.handler.Login)
			r.With(router.chiMiddleware.RateLimitAuth()).Post("/resend-verification", router.handler.ResendVerification)
			r.Get("/verify-email", router.handler.VerifyEmail)
			r.With(chiMiddleware(router.middleware.Authenticate)).Get("/me", router.handler.Me)
		})

		// Community
		r.Get("/rooms", router.handler.ListRooms)
		r.Get("/rooms/{name}/messages", router.handler.RoomMessages)
		r.Post("/contact", router.handler.SubmitContact)
		r.Get("/contacts", router.handler.ListContacts)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware(router.middleware.Authenticate))

			r.Post("/rooms/{name}/join", router.handler.JoinRoom)
			r.Post("/courses/enroll", router.handler.Enroll)
			r.Get("/courses/my-courses", router.handler.MyCourses)
		})
	})

	// Chat
	r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws", router.handler.WebSocket)

	return r
}

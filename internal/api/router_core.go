// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"github.com/tomtom215/cycles/internal/auth"
	"github.com/tomtom215/cycles/internal/config"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a new router. CORS and rate limits come from the
// security section of cfg.
func NewRouter(handler *Handler, middleware *auth.Middleware, cfg *config.Config) *Router {
	return &Router{
		handler:    handler,
		middleware: middleware,
		chiMiddleware: NewChiMiddlewareFromSecurity(
			cfg.Security.CORSOrigins,
			cfg.Security.RateLimitRequests,
			cfg.Security.RateLimitWindow,
			cfg.Security.RateLimitDisabled,
		),
	}
}

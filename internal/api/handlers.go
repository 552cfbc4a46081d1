// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/cycles/internal/auth"
	"github.com/tomtom215/cycles/internal/community"
	"github.com/tomtom215/cycles/internal/config"
	"github.com/tomtom215/cycles/internal/logging"
	ws "github.com/tomtom215/cycles/internal/websocket"
)

// Handler serves the HTTP API and the chat WebSocket.
type Handler struct {
	svc       *community.Service
	hub       *ws.Hub
	config    *config.Config
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewHandler creates a new API handler.
func NewHandler(svc *community.Service, hub *ws.Hub, cfg *config.Config) *Handler {
	h := &Handler{
		svc:       svc,
		hub:       hub,
		config:    cfg,
		startTime: time.Now(),
	}
	h.upgrader = h.getUpgrader()
	return h
}

// getUpgrader returns a WebSocket upgrader bound to the configured origins.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts the handshake when the Origin header matches
// an allowed origin or "*" is configured. A missing Origin is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.config.WebSocket.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().
		Str("origin", sanitizeLogValue(origin)).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// currentUserID returns the authenticated subject. Only valid behind
// auth.Middleware.Authenticate.
func currentUserID(r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"net/http"

	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/metrics"
	ws "github.com/tomtom215/cycles/internal/websocket"
)

// WebSocket upgrades the request and attaches a chat session to the hub.
// Identity travels in the join-room payload; the handshake is anonymous.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		metrics.WSErrors.WithLabelValues("upgrade").Inc()
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, h.svc, ws.ClientConfig{
		EventsPerSecond: h.config.WebSocket.EventsPerSecond,
		EventBurst:      h.config.WebSocket.EventBurst,
	})
	if !h.hub.Register(client) {
		logging.Ctx(r.Context()).Warn().Msg("Hub unavailable, closing WebSocket")
		_ = conn.Close()
		return
	}

	logging.Ctx(r.Context()).Debug().Uint64("session_id", client.ID()).Msg("WebSocket session started")
	client.Start()
}

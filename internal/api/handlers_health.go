// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/cycles/internal/logging"
)

// readinessTimeout bounds the store ping behind /health/ready.
const readinessTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Error  string `json:"error,omitempty"`
}

// HealthLive handles GET /health/live. It never touches dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
	})
}

// HealthReady handles GET /health/ready. It fails with 503 when the store
// cannot be reached.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
	}
	if err := h.svc.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		resp.Status = "unavailable"
		resp.Error = "storage unavailable"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cycles/internal/community"
	"github.com/tomtom215/cycles/internal/models"
)

type roomsResponse struct {
	Rooms []models.RoomView `json:"rooms"`
}

type messagesResponse struct {
	Messages []models.Message `json:"messages"`
}

// ListRooms handles GET /api/rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.svc.ListRooms(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []models.RoomView{}
	}
	respondJSON(w, http.StatusOK, roomsResponse{Rooms: rooms})
}

// RoomMessages handles GET /api/rooms/{name}/messages?limit=N.
func (h *Handler) RoomMessages(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	limit := getIntParam(r, "limit", community.DefaultMessageLimit)

	msgs, err := h.svc.RecentMessages(r.Context(), name, limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	respondJSON(w, http.StatusOK, messagesResponse{Messages: msgs})
}

// JoinRoom handles POST /api/rooms/{name}/join.
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	if err := h.svc.JoinRoom(r.Context(), userID, chi.URLParam(r, "name")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Joined room successfully"})
}

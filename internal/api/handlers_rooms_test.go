// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"context"
	"net/http"
	"net/url"
	"testing"
)

func TestListRooms(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/rooms", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp roomsResponse
	decodeBody(t, rec, &resp)
	if len(resp.Rooms) != 3 {
		t.Fatalf("got %d rooms, want 3 seeded rooms", len(resp.Rooms))
	}
	for _, room := range resp.Rooms {
		if room.Members == nil {
			t.Errorf("room %q members is null", room.Name)
		}
	}
}

func TestJoinRoom(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.register("Kemi", "kemi@example.com")
	path := "/api/rooms/" + url.PathEscape("Young Mothers Circle") + "/join"

	rec := s.do(http.MethodPost, path, nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var msg messageResponse
	decodeBody(t, rec, &msg)
	if msg.Message != "Joined room successfully" {
		t.Errorf("message = %q", msg.Message)
	}

	// Joining twice keeps a single membership.
	s.do(http.MethodPost, path, nil, token)

	var rooms roomsResponse
	decodeBody(t, s.do(http.MethodGet, "/api/rooms", nil, ""), &rooms)
	for _, room := range rooms.Rooms {
		if room.Name == "Young Mothers Circle" && len(room.Members) != 1 {
			t.Errorf("members = %d, want 1", len(room.Members))
		}
	}

	var me meResponse
	decodeBody(t, s.do(http.MethodGet, "/api/auth/me", nil, token), &me)
	if len(me.User.JoinedRooms) != 1 || me.User.JoinedRooms[0] != "Young Mothers Circle" {
		t.Errorf("joinedRooms = %v", me.User.JoinedRooms)
	}
}

func TestJoinRoom_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.register("Kemi", "kemi@example.com")

	rec := s.do(http.MethodPost, "/api/rooms/Nowhere/join", nil, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown room status = %d, want 404", rec.Code)
	}
	if got := errorText(t, rec); got != "Room not found" {
		t.Errorf("error = %q", got)
	}

	rec = s.do(http.MethodPost, "/api/rooms/Nowhere/join", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", rec.Code)
	}
}

func TestRoomMessages_LimitKeepsNewestOldestFirst(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	for _, text := range []string{"A", "B", "C"} {
		if _, err := s.svc.AppendMessage(ctx, "Lobby", "u1", "Ada", "AD", text); err != nil {
			t.Fatalf("AppendMessage(%q) error = %v", text, err)
		}
	}

	rec := s.do(http.MethodGet, "/api/rooms/Lobby/messages?limit=2", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp messagesResponse
	decodeBody(t, rec, &resp)
	if len(resp.Messages) != 2 || resp.Messages[0].Text != "B" || resp.Messages[1].Text != "C" {
		t.Fatalf("messages = %+v, want B then C", resp.Messages)
	}

	// A non-numeric limit falls back to the default window.
	decodeBody(t, s.do(http.MethodGet, "/api/rooms/Lobby/messages?limit=abc", nil, ""), &resp)
	if len(resp.Messages) != 3 {
		t.Errorf("got %d messages with default limit, want 3", len(resp.Messages))
	}
}

func TestRoomMessages_EmptyRoom(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/api/rooms/Quiet/messages", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); body != "{\"messages\":[]}\n" {
		t.Errorf("body = %q", body)
	}
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

/*
Package websocket implements chat presence and room broadcast.

Key Components:

  - Hub: single goroutine owning the session set and room membership
  - Client: one connection with a read pump, a write pump and a 256 slot send buffer
  - Event: closed set of inbound variants decoded from {"event": ..., "data": ...}

Architecture:

	┌──────────┐  join/leave/broadcast   ┌───────────────────────────┐
	│ Client N │ ──────────────────────▶ │ Hub (rooms, clients)      │
	│ readPump │                         │ processes commands in     │
	└────┬─────┘                         │ arrival order             │
	     │ send-message                  └────────────┬──────────────┘
	     ▼                                            │ frames
	MessageAppender (store)                     Client.send ─▶ writePump

Inbound events:

  - join-room: subscribe, user-joined to others, online-count to everyone
  - leave-room: unsubscribe, online-count to the remaining subscribers
  - send-message: persist, then new-message to the room or message-error to the sender
  - typing: user-typing to everyone else in the room

Disconnects and evictions remove the session from every room it joined and
broadcast the recomputed online-count to each of them. A session whose send
buffer is full is evicted.

Usage Example:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	client := websocket.NewClient(hub, conn, service, websocket.ClientConfig{})
	if hub.Register(client) {
	    client.Start()
	}
*/
package websocket

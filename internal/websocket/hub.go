// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package websocket

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

const (
	commandBuffer  = 1024
	enqueueTimeout = 5 * time.Second
)

type commandKind int

const (
	cmdRegister commandKind = iota
	cmdUnregister
	cmdJoin
	cmdLeave
	cmdBroadcast
	cmdDirect
	cmdStats
)

// command is a request processed by the hub goroutine.
type command struct {
	kind    commandKind
	client  *Client
	room    string
	frame   []byte
	exclude *Client
	joined  []byte
	reply   chan Stats
}

// Stats is a point-in-time view of hub state.
type Stats struct {
	Clients int
	Rooms   map[string]int
}

// Hub owns the session set and the room membership registry. All state is
// touched only by the goroutine running RunWithContext, so events for a room
// reach every current subscriber in processing order.
type Hub struct {
	commands chan command

	// Owned by the run loop.
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		commands: make(chan command, commandBuffer),
		clients:  make(map[*Client]struct{}),
		rooms:    make(map[string]map[*Client]struct{}),
	}
}

// RunWithContext processes hub commands until ctx is cancelled. Every start
// begins with an empty registry; on exit all sessions are closed.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.reset()
	for {
		// Shutdown takes priority over pending commands.
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case cmd := <-h.commands:
			h.handle(cmd)
		}
	}
}

// reset closes any session left over from a previous run and clears the
// registry. It returns the number of sessions closed.
func (h *Hub) reset() int {
	closed := len(h.clients)
	for c := range h.clients {
		close(c.send)
		metrics.WSConnections.Dec()
	}
	for room := range h.rooms {
		metrics.SetRoomSubscribers(room, 0)
	}
	h.clients = make(map[*Client]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	return closed
}

func (h *Hub) handle(cmd command) {
	switch cmd.kind {
	case cmdRegister:
		h.clients[cmd.client] = struct{}{}
		metrics.WSConnections.Inc()
		logging.Debug().Uint64("session_id", cmd.client.id).Int("total_clients", len(h.clients)).Msg("websocket client connected")
	case cmdUnregister:
		h.disconnect(cmd.client)
	case cmdJoin:
		h.join(cmd.client, cmd.room, cmd.joined)
	case cmdLeave:
		h.leave(cmd.client, cmd.room)
	case cmdBroadcast:
		h.broadcast(cmd.room, cmd.frame, cmd.exclude)
	case cmdDirect:
		if _, ok := h.clients[cmd.client]; ok {
			h.deliver([]*Client{cmd.client}, cmd.frame)
		}
	case cmdStats:
		cmd.reply <- h.stats()
	}
}

// join subscribes c to room, notifies the other subscribers and sends the
// new online count to everyone in the room.
func (h *Hub) join(c *Client, room string, joined []byte) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	metrics.SetRoomSubscribers(room, len(members))

	if joined != nil {
		h.broadcast(room, joined, c)
	}
	h.broadcastOnlineCount(room)
}

// leave unsubscribes c from room and updates the remaining subscribers.
func (h *Hub) leave(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
	}
	delete(c.rooms, room)
	h.broadcastOnlineCount(room)
}

// disconnect removes c from every room it joined and recomputes the online
// count for each of them.
func (h *Hub) disconnect(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	metrics.WSConnections.Dec()

	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	for _, room := range rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, c)
		}
		delete(c.rooms, room)
		h.broadcastOnlineCount(room)
	}
	logging.Debug().Uint64("session_id", c.id).Int("total_clients", len(h.clients)).Msg("websocket client disconnected")
}

func (h *Hub) broadcastOnlineCount(room string) {
	members := h.rooms[room]
	n := len(members)
	metrics.SetRoomSubscribers(room, n)
	if n == 0 {
		delete(h.rooms, room)
		return
	}
	frame, err := EncodeFrame(EventOnlineCount, n)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode online-count")
		return
	}
	h.broadcast(room, frame, nil)
}

// broadcast sends frame to every subscriber of room except exclude.
func (h *Hub) broadcast(room string, frame []byte, exclude *Client) {
	members := h.rooms[room]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		if c != exclude {
			targets = append(targets, c)
		}
	}
	h.deliver(targets, frame)
}

// deliver fans frame out without blocking. Sessions whose send buffer is
// full are evicted through the disconnect path.
func (h *Hub) deliver(targets []*Client, frame []byte) {
	sort.Slice(targets, func(i, j int) bool { return targets[i].id < targets[j].id })

	var evicted []*Client
	for _, c := range targets {
		select {
		case c.send <- frame:
			metrics.WSMessagesSent.Inc()
		default:
			evicted = append(evicted, c)
		}
	}
	for _, c := range evicted {
		metrics.WSErrors.WithLabelValues("slow_consumer").Inc()
		logging.Warn().Uint64("session_id", c.id).Msg("evicting websocket client with full send buffer")
		h.disconnect(c)
	}
}

func (h *Hub) stats() Stats {
	s := Stats{Clients: len(h.clients), Rooms: make(map[string]int, len(h.rooms))}
	for room, members := range h.rooms {
		s.Rooms[room] = len(members)
	}
	return s
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.reset()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// enqueue hands cmd to the run loop. It gives up after enqueueTimeout when
// the hub is not running.
func (h *Hub) enqueue(cmd command) bool {
	select {
	case h.commands <- cmd:
		return true
	default:
	}
	timer := time.NewTimer(enqueueTimeout)
	defer timer.Stop()
	select {
	case h.commands <- cmd:
		return true
	case <-timer.C:
		logging.Warn().Int("kind", int(cmd.kind)).Msg("websocket hub not accepting commands")
		return false
	}
}

// Register adds a session to the hub.
func (h *Hub) Register(c *Client) bool {
	return h.enqueue(command{kind: cmdRegister, client: c})
}

// Unregister runs the disconnect path for a session.
func (h *Hub) Unregister(c *Client) {
	h.enqueue(command{kind: cmdUnregister, client: c})
}

// Join subscribes c to room. joined, if non-nil, is sent to the other
// subscribers before the online count.
func (h *Hub) Join(c *Client, room string, joined []byte) {
	h.enqueue(command{kind: cmdJoin, client: c, room: room, joined: joined})
}

// Leave unsubscribes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.enqueue(command{kind: cmdLeave, client: c, room: room})
}

// Broadcast sends frame to all subscribers of room except exclude.
func (h *Hub) Broadcast(room string, frame []byte, exclude *Client) {
	h.enqueue(command{kind: cmdBroadcast, room: room, frame: frame, exclude: exclude})
}

// SendTo sends frame to a single session if it is still connected.
func (h *Hub) SendTo(c *Client, frame []byte) {
	h.enqueue(command{kind: cmdDirect, client: c, frame: frame})
}

// Stats returns the connected session count and per-room subscriber counts.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if !h.enqueue(command{kind: cmdStats, reply: reply}) {
		return Stats{}, context.DeadlineExceeded
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/metrics"
	"github.com/tomtom215/cycles/internal/models"
	"github.com/tomtom215/cycles/internal/validation"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
	appendTimeout  = 10 * time.Second
)

// Default inbound event rate per session.
const (
	DefaultEventsPerSecond = 20
	DefaultEventBurst      = 40
)

// clientIDCounter hands out monotonically increasing session ids.
var clientIDCounter atomic.Uint64

// MessageAppender persists chat messages sent over the socket.
type MessageAppender interface {
	AppendMessage(ctx context.Context, roomName, userID, author, avatar, text string) (*models.Message, error)
}

// ClientConfig holds per-session limits.
type ClientConfig struct {
	EventsPerSecond float64
	EventBurst      int
}

// Client is one chat session: a WebSocket connection plus its send buffer.
type Client struct {
	id       uint64
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	limiter  *rate.Limiter
	appender MessageAppender
	now      func() time.Time

	// rooms is owned by the hub goroutine.
	rooms map[string]struct{}
}

// NewClient creates a session for conn. It must be registered with the hub
// before Start is called.
func NewClient(hub *Hub, conn *websocket.Conn, appender MessageAppender, cfg ClientConfig) *Client {
	if cfg.EventsPerSecond <= 0 {
		cfg.EventsPerSecond = DefaultEventsPerSecond
	}
	if cfg.EventBurst < 1 {
		cfg.EventBurst = DefaultEventBurst
	}
	return &Client{
		id:       clientIDCounter.Add(1),
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		limiter:  rate.NewLimiter(rate.Limit(cfg.EventsPerSecond), cfg.EventBurst),
		appender: appender,
		now:      time.Now,
		rooms:    make(map[string]struct{}),
	}
}

// ID returns the session id.
func (c *Client) ID() uint64 {
	return c.id
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump decodes inbound frames and dispatches them. It runs the
// disconnect path when the connection ends.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := logging.ContextWithSessionID(context.Background(), c.id)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Ctx(ctx).Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}

		if !c.limiter.Allow() {
			metrics.WSErrors.WithLabelValues("rate_limited").Inc()
			c.sendError(EventError, ErrTextRateLimited)
			continue
		}

		ev, err := DecodeEvent(raw)
		if err != nil {
			metrics.WSErrors.WithLabelValues("invalid_event").Inc()
			c.sendError(EventError, invalidFrameText(err))
			continue
		}
		metrics.WSEventsReceived.WithLabelValues(ev.EventName()).Inc()
		c.dispatch(ctx, ev)
	}
}

func invalidFrameText(err error) string {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		return ErrTextInvalidFrame + ": " + verr.FirstMessage()
	}
	if errors.Is(err, ErrUnknownEvent) {
		return ErrTextInvalidFrame + ": unknown event"
	}
	return ErrTextInvalidFrame
}

func (c *Client) dispatch(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case JoinRoomEvent:
		joined, err := EncodeFrame(EventUserJoined, UserJoinedPayload{
			UserName:   e.UserName,
			UserAvatar: e.UserAvatar,
			Timestamp:  c.now().UTC(),
		})
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("failed to encode user-joined")
			return
		}
		c.hub.Join(c, e.RoomName, joined)
		logging.Ctx(ctx).Debug().Str("room", e.RoomName).Str("user_id", e.UserID).Msg("session joined room")

	case LeaveRoomEvent:
		c.hub.Leave(c, e.RoomName)

	case TypingEvent:
		frame, err := EncodeFrame(EventUserTyping, UserTypingPayload{UserName: e.UserName, IsTyping: e.IsTyping})
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("failed to encode user-typing")
			return
		}
		c.hub.Broadcast(e.RoomName, frame, c)

	case SendMessageEvent:
		c.sendMessage(ctx, e)
	}
}

// sendMessage persists on the session goroutine so a slow store never
// stalls the hub. Failures are reported to the sender only.
func (c *Client) sendMessage(ctx context.Context, e SendMessageEvent) {
	ctx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()

	msg, err := c.appender.AppendMessage(ctx, e.RoomName, e.UserID, e.Author, e.Avatar, e.Text)
	metrics.RecordChatMessage(err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("room", e.RoomName).Msg("failed to store chat message")
		c.sendError(EventMessageError, ErrTextSendFailed)
		return
	}

	frame, err := EncodeFrame(EventNewMessage, newMessagePayload(msg))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to encode new-message")
		c.sendError(EventMessageError, ErrTextSendFailed)
		return
	}
	c.hub.Broadcast(e.RoomName, frame, nil)
}

func (c *Client) sendError(event, text string) {
	frame, err := EncodeFrame(event, ErrorPayload{Error: text})
	if err != nil {
		return
	}
	c.hub.SendTo(c, frame)
}

// writePump writes hub frames to the connection and keeps it alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logging.Debug().Err(err).Uint64("session_id", c.id).Msg("failed to write websocket frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

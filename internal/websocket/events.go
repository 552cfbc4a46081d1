// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package websocket

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cycles/internal/models"
	"github.com/tomtom215/cycles/internal/validation"
)

// Inbound event names.
const (
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventSendMessage = "send-message"
	EventTyping      = "typing"
)

// Outbound event names.
const (
	EventUserJoined   = "user-joined"
	EventOnlineCount  = "online-count"
	EventNewMessage   = "new-message"
	EventMessageError = "message-error"
	EventUserTyping   = "user-typing"
	EventError        = "error"
)

// Error texts sent to a single session.
const (
	ErrTextSendFailed   = "Failed to send message"
	ErrTextRateLimited  = "Rate limit exceeded"
	ErrTextInvalidFrame = "Invalid event"
)

// ErrUnknownEvent is returned by DecodeEvent for an unrecognised event name.
var ErrUnknownEvent = errors.New("unknown event")

// Frame is the wire envelope for both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is one of JoinRoomEvent, LeaveRoomEvent, SendMessageEvent or
// TypingEvent.
type Event interface {
	EventName() string
	isEvent()
}

// JoinRoomEvent subscribes the session to a room.
type JoinRoomEvent struct {
	RoomName   string `json:"roomName" validate:"required,notblank,max=100"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName" validate:"required,notblank,max=100"`
	UserAvatar string `json:"userAvatar" validate:"max=8"`
}

// LeaveRoomEvent unsubscribes the session from a room.
type LeaveRoomEvent struct {
	RoomName string `json:"roomName" validate:"required,notblank,max=100"`
	UserName string `json:"userName"`
}

// SendMessageEvent posts a chat message to a room.
type SendMessageEvent struct {
	RoomName string `json:"roomName" validate:"required,notblank,max=100"`
	UserID   string `json:"userId"`
	Author   string `json:"author" validate:"required,notblank,max=100"`
	Avatar   string `json:"avatar" validate:"max=8"`
	Text     string `json:"text" validate:"required,notblank,max=4000"`
}

// TypingEvent announces that a user started or stopped typing.
type TypingEvent struct {
	RoomName string `json:"roomName" validate:"required,notblank,max=100"`
	UserName string `json:"userName" validate:"required,notblank,max=100"`
	IsTyping bool   `json:"isTyping"`
}

func (JoinRoomEvent) EventName() string    { return EventJoinRoom }
func (LeaveRoomEvent) EventName() string   { return EventLeaveRoom }
func (SendMessageEvent) EventName() string { return EventSendMessage }
func (TypingEvent) EventName() string      { return EventTyping }

func (JoinRoomEvent) isEvent()    {}
func (LeaveRoomEvent) isEvent()   {}
func (SendMessageEvent) isEvent() {}
func (TypingEvent) isEvent()      {}

// DecodeEvent parses and validates one inbound frame.
func DecodeEvent(raw []byte) (Event, error) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	var ev Event
	var err error
	switch frame.Event {
	case EventJoinRoom:
		ev, err = decodeData[JoinRoomEvent](frame.Data)
	case EventLeaveRoom:
		ev, err = decodeData[LeaveRoomEvent](frame.Data)
	case EventSendMessage:
		ev, err = decodeData[SendMessageEvent](frame.Data)
	case EventTyping:
		ev, err = decodeData[TypingEvent](frame.Data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", frame.Event, err)
	}
	return ev, nil
}

func decodeData[T Event](data json.RawMessage) (Event, error) {
	var v T
	if len(data) == 0 {
		return nil, errors.New("missing data")
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if verr := validation.ValidateStruct(&v); verr != nil {
		return nil, verr
	}
	return v, nil
}

// NewMessagePayload is broadcast after a chat message is stored.
type NewMessagePayload struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Avatar    string    `json:"avatar"`
	Text      string    `json:"text"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

// UserJoinedPayload is sent to the other subscribers of a room.
type UserJoinedPayload struct {
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar"`
	Timestamp  time.Time `json:"timestamp"`
}

// UserTypingPayload relays a typing indicator.
type UserTypingPayload struct {
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// ErrorPayload is used for message-error and error events.
type ErrorPayload struct {
	Error string `json:"error"`
}

func newMessagePayload(m *models.Message) NewMessagePayload {
	return NewMessagePayload{
		ID:        m.ID,
		Author:    m.Author,
		Avatar:    m.Avatar,
		Text:      m.Text,
		Time:      "Just now",
		Timestamp: m.CreatedAt,
	}
}

// EncodeFrame marshals an outbound event.
func EncodeFrame(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: payload})
}

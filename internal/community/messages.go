// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package community

import (
	"context"

	"github.com/tomtom215/cycles/internal/models"
)

// Message history limits.
const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 500
)

// NormalizeLimit maps a requested history size onto [1, MaxMessageLimit].
// Non-positive values select DefaultMessageLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultMessageLimit
	case limit > MaxMessageLimit:
		return MaxMessageLimit
	default:
		return limit
	}
}

// AppendMessage stores a chat message. The room name is not checked
// against the directory.
func (s *Service) AppendMessage(ctx context.Context, roomName, userID, author, avatar, text string) (*models.Message, error) {
	msg := &models.Message{
		ID:        s.newID(),
		RoomName:  roomName,
		UserID:    userID,
		Author:    author,
		Avatar:    avatar,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, persistenceError(err)
	}
	return msg, nil
}

// RecentMessages returns the newest limit messages of roomName, oldest first.
func (s *Service) RecentMessages(ctx context.Context, roomName string, limit int) ([]models.Message, error) {
	msgs, err := s.store.RecentMessages(ctx, roomName, NormalizeLimit(limit))
	if err != nil {
		return nil, persistenceError(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package community

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/models"
	"github.com/tomtom215/cycles/internal/store"
)

// RoomSeed describes a starter room.
type RoomSeed struct {
	Name        string
	Icon        string
	Description string
}

// DefaultRooms is inserted into an empty directory by SeedRooms.
var DefaultRooms = []RoomSeed{
	{Name: "Young Mothers Circle", Icon: "👶", Description: "A supportive space for young mothers."},
	{Name: "Empowered Abilities", Icon: "♿", Description: "Celebrating abilities and creating opportunities."},
	{Name: "Sisters Supporting Sisters", Icon: "🤝", Description: "Main community for women breaking cycles."},
}

// Test account created by SeedTestUser.
const (
	TestUserEmail    = "test@example.com"
	TestUserPassword = "password123"
	TestUserName     = "Test User"
)

// ListRooms returns every room with members resolved to display fields.
// Member ids that no longer resolve to a user are skipped.
func (s *Service) ListRooms(ctx context.Context) ([]models.RoomView, error) {
	rooms, err := s.store.ListRooms(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, r := range rooms {
		for _, id := range r.Members {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, persistenceError(err)
	}

	views := make([]models.RoomView, 0, len(rooms))
	for _, r := range rooms {
		members := make([]models.MemberView, 0, len(r.Members))
		for _, id := range r.Members {
			if u, ok := users[id]; ok {
				members = append(members, models.MemberView{ID: u.ID, Name: u.Name, Avatar: u.Avatar})
			}
		}
		views = append(views, models.RoomView{
			ID:          r.ID,
			Name:        r.Name,
			Icon:        r.Icon,
			Description: r.Description,
			Members:     members,
			CreatedAt:   r.CreatedAt,
		})
	}
	return views, nil
}

// JoinRoom records userID as a member of roomName. Joining again is a no-op.
//
// The room membership and the user's joined set are updated by two separate
// store calls; a failure between them leaves the room side updated only.
func (s *Service) JoinRoom(ctx context.Context, userID, roomName string) error {
	if _, err := s.store.GetRoom(ctx, roomName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError(MsgRoomNotFound, err)
		}
		return persistenceError(err)
	}

	if err := s.store.AddRoomMember(ctx, roomName, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError(MsgRoomNotFound, err)
		}
		return persistenceError(err)
	}

	if err := s.store.AddJoinedRoom(ctx, userID, roomName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError(MsgUserNotFound, err)
		}
		return persistenceError(err)
	}

	logging.Ctx(ctx).Debug().Str("user_id", userID).Str("room", roomName).Msg("User joined room")
	return nil
}

// SeedRooms inserts DefaultRooms when the directory is empty and reports
// how many rooms were created.
func (s *Service) SeedRooms(ctx context.Context) (int, error) {
	n, err := s.store.CountRooms(ctx)
	if err != nil {
		return 0, persistenceError(err)
	}
	if n > 0 {
		return 0, nil
	}

	base := s.now()
	created := 0
	for i, seed := range DefaultRooms {
		room := &models.Room{
			ID:          s.newID(),
			Name:        seed.Name,
			Icon:        seed.Icon,
			Description: seed.Description,
			Members:     []string{},
			// Distinct timestamps keep the listing in declaration order.
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.store.CreateRoom(ctx, room); err != nil {
			if errors.Is(err, store.ErrDuplicateRoom) {
				continue
			}
			return created, persistenceError(err)
		}
		created++
	}

	logging.Info().Int("rooms", created).Msg("Seeded chat rooms")
	return created, nil
}

// SeedTestUser creates the verified development account unless it exists.
func (s *Service) SeedTestUser(ctx context.Context) error {
	if _, err := s.store.GetUserByEmail(ctx, TestUserEmail); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return persistenceError(err)
	}

	hash, err := s.hasher.Hash(TestUserPassword)
	if err != nil {
		return persistenceError(err)
	}

	now := s.now()
	user := &models.User{
		ID:           s.newID(),
		Name:         TestUserName,
		Email:        TestUserEmail,
		PasswordHash: hash,
		Phone:        "123-456-7890",
		Location:     "Test City",
		Avatar:       "TU",
		Verified:     true,
		JoinedRooms:  []string{},
		LastActive:   now,
		CreatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil && !errors.Is(err, store.ErrDuplicateEmail) {
		return persistenceError(err)
	}

	logging.Info().Str("email", TestUserEmail).Msg("Seeded test user")
	return nil
}

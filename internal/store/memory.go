// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/cycles/internal/models"
)

// MemoryStore keeps everything in process memory. Values are copied on the
// way in and out so callers never share state with the store.
type MemoryStore struct {
	mu sync.RWMutex

	users       map[string]*models.User
	emailIndex  map[string]string
	tokenIndex  map[string]string
	rooms       map[string]*models.Room
	roomOrder   []string
	messages    map[string][]models.Message
	contacts    []models.Contact
	enrollments map[string][]models.Enrollment
	seq         uint64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]*models.User),
		emailIndex:  make(map[string]string),
		tokenIndex:  make(map[string]string),
		rooms:       make(map[string]*models.Room),
		messages:    make(map[string][]models.Message),
		enrollments: make(map[string][]models.Enrollment),
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.JoinedRooms = append([]string(nil), u.JoinedRooms...)
	return &c
}

func copyRoom(r *models.Room) *models.Room {
	c := *r
	c.Members = append([]string(nil), r.Members...)
	return &c
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emailIndex[u.Email]; exists {
		return ErrDuplicateEmail
	}
	s.users[u.ID] = copyUser(u)
	s.emailIndex[u.Email] = u.ID
	if u.VerificationToken != "" {
		s.tokenIndex[u.VerificationToken] = u.ID
	}
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.emailIndex[email]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *MemoryStore) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	s.mu.RLock()
	id, ok := s.tokenIndex[token]
	s.mu.RUnlock()
	if !ok || token == "" {
		return nil, ErrNotFound
	}
	return s.GetUserByID(ctx, id)
}

func (s *MemoryStore) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.VerificationToken != "" {
		delete(s.tokenIndex, existing.VerificationToken)
	}
	if u.VerificationToken != "" {
		s.tokenIndex[u.VerificationToken] = u.ID
	}

	updated := copyUser(u)
	updated.JoinedRooms = existing.JoinedRooms
	updated.Email = existing.Email
	s.users[u.ID] = updated
	return nil
}

func (s *MemoryStore) AddJoinedRoom(_ context.Context, userID, roomName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	if !u.HasJoined(roomName) {
		u.JoinedRooms = append(u.JoinedRooms, roomName)
	}
	return nil
}

func (s *MemoryStore) CountRooms(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms), nil
}

func (s *MemoryStore) CreateRoom(_ context.Context, r *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[r.Name]; exists {
		return ErrDuplicateRoom
	}
	s.rooms[r.Name] = copyRoom(r)
	s.roomOrder = append(s.roomOrder, r.Name)
	return nil
}

func (s *MemoryStore) ListRooms(_ context.Context) ([]models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Room, 0, len(s.roomOrder))
	for _, name := range s.roomOrder {
		out = append(out, *copyRoom(s.rooms[name]))
	}
	return out, nil
}

func (s *MemoryStore) GetRoom(_ context.Context, name string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[name]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRoom(r), nil
}

func (s *MemoryStore) AddRoomMember(_ context.Context, roomName, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomName]
	if !ok {
		return ErrNotFound
	}
	if !r.HasMember(userID) {
		r.Members = append(r.Members, userID)
	}
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	m.Seq = s.seq
	s.messages[m.RoomName] = append(s.messages[m.RoomName], *m)
	return nil
}

func (s *MemoryStore) RecentMessages(_ context.Context, roomName string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	all := append([]models.Message(nil), s.messages[roomName]...)
	s.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return newerMessage(all[i], all[j])
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []models.Message{}
	}
	return all, nil
}

// newerMessage orders by creation time then by sequence, both descending.
func newerMessage(a, b models.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.Seq > b.Seq
}

func (s *MemoryStore) CreateContact(_ context.Context, c *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = append(s.contacts, *c)
	return nil
}

func (s *MemoryStore) ListContacts(_ context.Context) ([]models.Contact, error) {
	s.mu.RLock()
	out := make([]models.Contact, len(s.contacts))
	copy(out, s.contacts)
	s.mu.RUnlock()

	// Reverse insertion order first so equal timestamps stay newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CreateEnrollment(_ context.Context, e *models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.enrollments[e.UserID] {
		if existing.CourseName == e.CourseName {
			return ErrDuplicateEnrollment
		}
	}
	s.enrollments[e.UserID] = append(s.enrollments[e.UserID], *e)
	return nil
}

func (s *MemoryStore) FindEnrollment(_ context.Context, userID, courseName string) (*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.enrollments[userID] {
		if e.CourseName == courseName {
			found := e
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListEnrollments(_ context.Context, userID string) ([]models.Enrollment, error) {
	s.mu.RLock()
	src := s.enrollments[userID]
	out := make([]models.Enrollment, len(src))
	copy(out, src)
	s.mu.RUnlock()

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EnrolledAt.After(out[j].EnrolledAt)
	})
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package store

import (
	"context"
	"time"

	"github.com/tomtom215/cycles/internal/metrics"
	"github.com/tomtom215/cycles/internal/models"
)

// Instrumented records latency and error metrics for every call to the
// wrapped Store.
type Instrumented struct {
	next    Store
	backend string
}

// NewInstrumented wraps next. backend labels the emitted series.
func NewInstrumented(next Store, backend string) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

func (s *Instrumented) observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(s.backend, op, time.Since(start), err, ErrNotFound)
}

func (s *Instrumented) CreateUser(ctx context.Context, u *models.User) error {
	start := time.Now()
	err := s.next.CreateUser(ctx, u)
	s.observe("create_user", start, err)
	return err
}

func (s *Instrumented) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	start := time.Now()
	v, err := s.next.GetUserByID(ctx, id)
	s.observe("get_user", start, err)
	return v, err
}

func (s *Instrumented) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	start := time.Now()
	v, err := s.next.GetUserByEmail(ctx, email)
	s.observe("get_user_by_email", start, err)
	return v, err
}

func (s *Instrumented) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	start := time.Now()
	v, err := s.next.GetUserByVerificationToken(ctx, token)
	s.observe("get_user_by_token", start, err)
	return v, err
}

func (s *Instrumented) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	start := time.Now()
	v, err := s.next.GetUsersByIDs(ctx, ids)
	s.observe("get_users", start, err)
	return v, err
}

func (s *Instrumented) UpdateUser(ctx context.Context, u *models.User) error {
	start := time.Now()
	err := s.next.UpdateUser(ctx, u)
	s.observe("update_user", start, err)
	return err
}

func (s *Instrumented) AddJoinedRoom(ctx context.Context, userID, roomName string) error {
	start := time.Now()
	err := s.next.AddJoinedRoom(ctx, userID, roomName)
	s.observe("add_joined_room", start, err)
	return err
}

func (s *Instrumented) CountRooms(ctx context.Context) (int, error) {
	start := time.Now()
	v, err := s.next.CountRooms(ctx)
	s.observe("count_rooms", start, err)
	return v, err
}

func (s *Instrumented) CreateRoom(ctx context.Context, r *models.Room) error {
	start := time.Now()
	err := s.next.CreateRoom(ctx, r)
	s.observe("create_room", start, err)
	return err
}

func (s *Instrumented) ListRooms(ctx context.Context) ([]models.Room, error) {
	start := time.Now()
	v, err := s.next.ListRooms(ctx)
	s.observe("list_rooms", start, err)
	return v, err
}

func (s *Instrumented) GetRoom(ctx context.Context, name string) (*models.Room, error) {
	start := time.Now()
	v, err := s.next.GetRoom(ctx, name)
	s.observe("get_room", start, err)
	return v, err
}

func (s *Instrumented) AddRoomMember(ctx context.Context, roomName, userID string) error {
	start := time.Now()
	err := s.next.AddRoomMember(ctx, roomName, userID)
	s.observe("add_room_member", start, err)
	return err
}

func (s *Instrumented) AppendMessage(ctx context.Context, m *models.Message) error {
	start := time.Now()
	err := s.next.AppendMessage(ctx, m)
	s.observe("append_message", start, err)
	return err
}

func (s *Instrumented) RecentMessages(ctx context.Context, roomName string, limit int) ([]models.Message, error) {
	start := time.Now()
	v, err := s.next.RecentMessages(ctx, roomName, limit)
	s.observe("recent_messages", start, err)
	return v, err
}

func (s *Instrumented) CreateContact(ctx context.Context, c *models.Contact) error {
	start := time.Now()
	err := s.next.CreateContact(ctx, c)
	s.observe("create_contact", start, err)
	return err
}

func (s *Instrumented) ListContacts(ctx context.Context) ([]models.Contact, error) {
	start := time.Now()
	v, err := s.next.ListContacts(ctx)
	s.observe("list_contacts", start, err)
	return v, err
}

func (s *Instrumented) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	start := time.Now()
	err := s.next.CreateEnrollment(ctx, e)
	s.observe("create_enrollment", start, err)
	return err
}

func (s *Instrumented) FindEnrollment(ctx context.Context, userID, courseName string) (*models.Enrollment, error) {
	start := time.Now()
	v, err := s.next.FindEnrollment(ctx, userID, courseName)
	s.observe("find_enrollment", start, err)
	return v, err
}

func (s *Instrumented) ListEnrollments(ctx context.Context, userID string) ([]models.Enrollment, error) {
	start := time.Now()
	v, err := s.next.ListEnrollments(ctx, userID)
	s.observe("list_enrollments", start, err)
	return v, err
}

func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}

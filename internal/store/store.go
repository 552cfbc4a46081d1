// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

// Package store defines the persistence port used by the community service
// and its three implementations:
//
//   - memory: maps guarded by a RWMutex, lost on restart
//   - badger: embedded BadgerDB key-value store
//   - postgres: PostgreSQL via pgx, schema managed by goose migrations
//
// The backend is chosen once at construction time with Open.
package store

import (
	"context"
	"errors"

	"github.com/tomtom215/cycles/internal/models"
)

// Sentinel errors shared by all implementations.
var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateEnrollment = errors.New("already enrolled in this course")
	ErrDuplicateRoom       = errors.New("room already exists")
)

// Store is the persistence port.
//
// List methods return empty (non-nil) slices when nothing matches.
type Store interface {
	// CreateUser inserts u. Returns ErrDuplicateEmail if the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByID returns ErrNotFound when absent.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail returns ErrNotFound when absent. Email matching is exact;
	// callers normalise before calling.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByVerificationToken returns ErrNotFound when no user holds token.
	GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error)
	// GetUsersByIDs returns the users that exist, keyed by id.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	// UpdateUser replaces the mutable profile fields of an existing user
	// (verification state and LastActive). JoinedRooms is managed by AddJoinedRoom.
	UpdateUser(ctx context.Context, u *models.User) error
	// AddJoinedRoom appends roomName to the user's joined set unless present.
	AddJoinedRoom(ctx context.Context, userID, roomName string) error

	// CountRooms returns the number of rooms.
	CountRooms(ctx context.Context) (int, error)
	// CreateRoom inserts r. Returns ErrDuplicateRoom if the name is taken.
	CreateRoom(ctx context.Context, r *models.Room) error
	// ListRooms returns all rooms ordered by creation.
	ListRooms(ctx context.Context) ([]models.Room, error)
	// GetRoom returns ErrNotFound when absent.
	GetRoom(ctx context.Context, name string) (*models.Room, error)
	// AddRoomMember appends userID to the membership list unless present.
	// Returns ErrNotFound if the room does not exist.
	AddRoomMember(ctx context.Context, roomName, userID string) error

	// AppendMessage stores m and assigns m.Seq. The room is not checked.
	AppendMessage(ctx context.Context, m *models.Message) error
	// RecentMessages returns up to limit messages for roomName, newest first.
	RecentMessages(ctx context.Context, roomName string, limit int) ([]models.Message, error)

	// CreateContact stores c.
	CreateContact(ctx context.Context, c *models.Contact) error
	// ListContacts returns all contacts, newest first.
	ListContacts(ctx context.Context) ([]models.Contact, error)

	// CreateEnrollment stores e. Returns ErrDuplicateEnrollment if the
	// (user, course) pair already exists.
	CreateEnrollment(ctx context.Context, e *models.Enrollment) error
	// FindEnrollment returns ErrNotFound when the pair does not exist.
	FindEnrollment(ctx context.Context, userID, courseName string) (*models.Enrollment, error)
	// ListEnrollments returns a user's enrollments, newest first.
	ListEnrollments(ctx context.Context, userID string) ([]models.Enrollment, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*BadgerStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*Instrumented)(nil)
)

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"

	"github.com/tomtom215/cycles/internal/models"
	"github.com/tomtom215/cycles/internal/store/migrations"
)

// PostgresStore persists entities in PostgreSQL through the pgx stdlib driver.
// Membership lists live in join tables so that appends are single
// INSERT ... ON CONFLICT DO NOTHING statements.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgresStore connects to dsn and applies pending migrations.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

// RunMigrations applies the embedded goose migrations.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, s.db, ".")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

const userColumns = `id, name, email, password_hash, phone, location, avatar,
	verified, verification_token, verification_expires, last_active, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u       models.User
		token   sql.NullString
		expires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Location, &u.Avatar,
		&u.Verified, &token, &expires, &u.LastActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.VerificationToken = token.String
	if expires.Valid {
		u.VerificationExpires = expires.Time
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Phone, u.Location, u.Avatar,
		u.Verified, nullString(u.VerificationToken), nullTime(u.VerificationExpires), u.LastActive, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrDuplicateEmail
	}
	for _, room := range u.JoinedRooms {
		if err := s.AddJoinedRoom(ctx, u.ID, room); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) joinedRooms(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_name FROM user_rooms WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	rooms := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rooms = append(rooms, name)
	}
	return rooms, rows.Err()
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if u.JoinedRooms, err = s.joinedRooms(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *PostgresStore) GetUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.getUser(ctx, "verification_token", token)
}

func (s *PostgresStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		u.JoinedRooms = []string{}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = $2, password_hash = $3, phone = $4, location = $5, avatar = $6,
		        verified = $7, verification_token = $8, verification_expires = $9, last_active = $10
		 WHERE id = $1`,
		u.ID, u.Name, u.PasswordHash, u.Phone, u.Location, u.Avatar,
		u.Verified, nullString(u.VerificationToken), nullTime(u.VerificationExpires), u.LastActive)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddJoinedRoom(ctx context.Context, userID, roomName string) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_rooms (user_id, room_name) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, userID, roomName)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountRooms(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CreateRoom(ctx context.Context, r *models.Room) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, icon, description, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (name) DO NOTHING`,
		r.ID, r.Name, r.Icon, r.Description, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrDuplicateRoom
	}
	for _, member := range r.Members {
		if err := s.AddRoomMember(ctx, r.Name, member); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) roomMembers(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_name, user_id FROM room_members ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var room, user string
		if err := rows.Scan(&room, &user); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		members[room] = append(members[room], user)
	}
	return members, rows.Err()
}

func (s *PostgresStore) ListRooms(ctx context.Context) ([]models.Room, error) {
	members, err := s.roomMembers(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon, description, created_at FROM rooms ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	rooms := []models.Room{}
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.ID, &r.Name, &r.Icon, &r.Description, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		r.Members = members[r.Name]
		if r.Members == nil {
			r.Members = []string{}
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

func (s *PostgresStore) GetRoom(ctx context.Context, name string) (*models.Room, error) {
	var r models.Room
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, icon, description, created_at FROM rooms WHERE name = $1`, name).
		Scan(&r.ID, &r.Name, &r.Icon, &r.Description, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM room_members WHERE room_name = $1 ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	r.Members = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		r.Members = append(r.Members, id)
	}
	return &r, rows.Err()
}

func (s *PostgresStore) AddRoomMember(ctx context.Context, roomName, userID string) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM rooms WHERE name = $1)`, roomName).Scan(&exists); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO room_members (room_name, user_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, roomName, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, m *models.Message) error {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO messages (id, room_name, user_id, author, avatar, text, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq`,
		m.ID, m.RoomName, m.UserID, m.Author, m.Avatar, m.Text, m.CreatedAt).Scan(&seq)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	m.Seq = uint64(seq)
	return nil
}

func (s *PostgresStore) RecentMessages(ctx context.Context, roomName string, limit int) ([]models.Message, error) {
	query := `SELECT seq, id, room_name, user_id, author, avatar, text, created_at
		 FROM messages WHERE room_name = $1
		 ORDER BY created_at DESC, seq DESC`
	args := []interface{}{roomName}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var (
			m   models.Message
			seq int64
		)
		if err := rows.Scan(&seq, &m.ID, &m.RoomName, &m.UserID, &m.Author, &m.Avatar, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		m.Seq = uint64(seq)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *PostgresStore) CreateContact(ctx context.Context, c *models.Contact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, name, email, subject, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.Name, c.Email, c.Subject, c.Message, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, subject, message, created_at
		 FROM contacts ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (s *PostgresStore) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO enrollments (id, user_id, course_name, category, enrolled_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, course_name) DO NOTHING`,
		e.ID, e.UserID, e.CourseName, e.Category, e.EnrolledAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrDuplicateEnrollment
	}
	return nil
}

const enrollmentColumns = `id, user_id, course_name, category, enrolled_at`

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseName, &e.Category, &e.EnrolledAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) FindEnrollment(ctx context.Context, userID, courseName string) (*models.Enrollment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = $1 AND course_name = $2`,
		userID, courseName)
	e, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) ListEnrollments(ctx context.Context, userID string) ([]models.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = $1
		 ORDER BY enrolled_at DESC, seq DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	enrollments := []models.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		enrollments = append(enrollments, *e)
	}
	return enrollments, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

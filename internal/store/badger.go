// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/cycles/internal/models"
)

// Key layout. Variable-length name segments are terminated with keySep so
// that one room or user id is never a prefix of another.
const (
	userKeyPrefix       = "user:"
	userEmailKeyPrefix  = "user_email:"
	userTokenKeyPrefix  = "user_vtoken:"
	roomKeyPrefix       = "room:"
	roomOrderKeyPrefix  = "room_order:"
	messageKeyPrefix    = "msg:"
	contactKeyPrefix    = "contact:"
	enrollmentKeyPrefix = "enroll:"

	keySep = "\x00"

	messageSeqKey  = "seq:messages"
	contactSeqKey  = "seq:contacts"
	seqBandwidth   = 100
	badgerGCPeriod = 10 * time.Minute
)

// BadgerStore persists entities as JSON values in an embedded BadgerDB.
type BadgerStore struct {
	db         *badger.DB
	msgSeq     *badger.Sequence
	contactSeq *badger.Sequence
	stopGC     chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// OpenBadgerStore opens (or creates) a BadgerDB at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return NewBadgerStore(db)
}

// NewBadgerStore wraps an already opened BadgerDB. The store owns db and
// closes it on Close.
func NewBadgerStore(db *badger.DB) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(messageSeqKey), seqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	contactSeq, err := db.GetSequence([]byte(contactSeqKey), seqBandwidth)
	if err != nil {
		_ = seq.Release()
		return nil, fmt.Errorf("contact sequence: %w", err)
	}
	s := &BadgerStore{
		db:         db,
		msgSeq:     seq,
		contactSeq: contactSeq,
		stopGC:     make(chan struct{}),
	}
	if !db.Opts().InMemory {
		go s.runValueLogGC()
	}
	return s, nil
}

func (s *BadgerStore) runValueLogGC() {
	ticker := time.NewTicker(badgerGCPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			for s.db.RunValueLogGC(0.5) == nil {
			}
		case <-s.stopGC:
			return
		}
	}
}

func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

func getIndex(txn *badger.Txn, key string) (string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// timeKey encodes t so that byte order matches chronological order.
func timeKey(t time.Time) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t.UnixNano()))
	return b
}

func seqKey(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

// scanPrefix decodes every value under prefix. reverse walks keys in descending order.
func scanPrefix(txn *badger.Txn, prefix []byte, reverse bool, limit int, decode func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.Reverse = reverse
	it := txn.NewIterator(opts)
	defer it.Close()

	start := prefix
	if reverse {
		start = append(append([]byte(nil), prefix...), 0xFF)
	}

	n := 0
	for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
		if limit > 0 && n >= limit {
			break
		}
		if err := it.Item().Value(decode); err != nil {
			return err
		}
		n++
	}
	return nil
}

func (s *BadgerStore) CreateUser(_ context.Context, u *models.User) error {
	return s.db.Update(func(txn *badger.Txn) error {
		taken, err := exists(txn, userEmailKeyPrefix+u.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateEmail
		}
		if err := setJSON(txn, userKeyPrefix+u.ID, u); err != nil {
			return err
		}
		if err := txn.Set([]byte(userEmailKeyPrefix+u.Email), []byte(u.ID)); err != nil {
			return fmt.Errorf("set email index: %w", err)
		}
		if u.VerificationToken != "" {
			if err := txn.Set([]byte(userTokenKeyPrefix+u.VerificationToken), []byte(u.ID)); err != nil {
				return fmt.Errorf("set token index: %w", err)
			}
		}
		return nil
	})
}

func (s *BadgerStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKeyPrefix+id, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *BadgerStore) getUserByIndex(key string) (*models.User, error) {
	var u models.User
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := getIndex(txn, key)
		if err != nil {
			return err
		}
		return getJSON(txn, userKeyPrefix+id, &u)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *BadgerStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.getUserByIndex(userEmailKeyPrefix + email)
}

func (s *BadgerStore) GetUserByVerificationToken(_ context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return s.getUserByIndex(userTokenKeyPrefix + token)
}

func (s *BadgerStore) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var u models.User
			err := getJSON(txn, userKeyPrefix+id, &u)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out[id] = &u
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) UpdateUser(_ context.Context, u *models.User) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.User
		if err := getJSON(txn, userKeyPrefix+u.ID, &existing); err != nil {
			return err
		}
		if existing.VerificationToken != "" && existing.VerificationToken != u.VerificationToken {
			if err := txn.Delete([]byte(userTokenKeyPrefix + existing.VerificationToken)); err != nil {
				return fmt.Errorf("delete token index: %w", err)
			}
		}
		if u.VerificationToken != "" {
			if err := txn.Set([]byte(userTokenKeyPrefix+u.VerificationToken), []byte(u.ID)); err != nil {
				return fmt.Errorf("set token index: %w", err)
			}
		}

		updated := *u
		updated.Email = existing.Email
		updated.JoinedRooms = existing.JoinedRooms
		return setJSON(txn, userKeyPrefix+u.ID, &updated)
	})
}

func (s *BadgerStore) AddJoinedRoom(_ context.Context, userID, roomName string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var u models.User
		if err := getJSON(txn, userKeyPrefix+userID, &u); err != nil {
			return err
		}
		if u.HasJoined(roomName) {
			return nil
		}
		u.JoinedRooms = append(u.JoinedRooms, roomName)
		return setJSON(txn, userKeyPrefix+userID, &u)
	})
}

func (s *BadgerStore) CountRooms(_ context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(roomKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func (s *BadgerStore) CreateRoom(_ context.Context, r *models.Room) error {
	return s.db.Update(func(txn *badger.Txn) error {
		taken, err := exists(txn, roomKeyPrefix+r.Name)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateRoom
		}
		if err := setJSON(txn, roomKeyPrefix+r.Name, r); err != nil {
			return err
		}
		orderKey := append([]byte(roomOrderKeyPrefix), timeKey(r.CreatedAt)...)
		orderKey = append(orderKey, []byte(r.Name)...)
		return txn.Set(orderKey, []byte(r.Name))
	})
}

func (s *BadgerStore) ListRooms(_ context.Context) ([]models.Room, error) {
	rooms := []models.Room{}
	err := s.db.View(func(txn *badger.Txn) error {
		var names []string
		err := scanPrefix(txn, []byte(roomOrderKeyPrefix), false, 0, func(val []byte) error {
			names = append(names, string(val))
			return nil
		})
		if err != nil {
			return err
		}
		for _, name := range names {
			var r models.Room
			if err := getJSON(txn, roomKeyPrefix+name, &r); err != nil {
				return err
			}
			rooms = append(rooms, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *BadgerStore) GetRoom(_ context.Context, name string) (*models.Room, error) {
	var r models.Room
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, roomKeyPrefix+name, &r)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *BadgerStore) AddRoomMember(_ context.Context, roomName, userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var r models.Room
		if err := getJSON(txn, roomKeyPrefix+roomName, &r); err != nil {
			return err
		}
		if r.HasMember(userID) {
			return nil
		}
		r.Members = append(r.Members, userID)
		return setJSON(txn, roomKeyPrefix+roomName, &r)
	})
}

func messageRoomPrefix(roomName string) []byte {
	return []byte(messageKeyPrefix + roomName + keySep)
}

func (s *BadgerStore) AppendMessage(_ context.Context, m *models.Message) error {
	n, err := s.msgSeq.Next()
	if err != nil {
		return fmt.Errorf("next message seq: %w", err)
	}
	// Badger sequences start at 0; keep Seq 1-based like the other stores.
	m.Seq = n + 1

	key := messageRoomPrefix(m.RoomName)
	key = append(key, timeKey(m.CreatedAt)...)
	key = append(key, seqKey(m.Seq)...)

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) RecentMessages(_ context.Context, roomName string, limit int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, messageRoomPrefix(roomName), true, limit, func(val []byte) error {
			var m models.Message
			if err := json.Unmarshal(val, &m); err != nil {
				return err
			}
			msgs = append(msgs, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// CreateContact keys contacts by time then sequence so equal timestamps list
// newest insert first, matching the other backends.
func (s *BadgerStore) CreateContact(_ context.Context, c *models.Contact) error {
	n, err := s.contactSeq.Next()
	if err != nil {
		return fmt.Errorf("next contact seq: %w", err)
	}
	key := append([]byte(contactKeyPrefix), timeKey(c.CreatedAt)...)
	key = append(key, seqKey(n+1)...)
	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal contact: %w", err)
		}
		return txn.Set(key, data)
	})
}

func (s *BadgerStore) ListContacts(_ context.Context) ([]models.Contact, error) {
	contacts := []models.Contact{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, []byte(contactKeyPrefix), true, 0, func(val []byte) error {
			var c models.Contact
			if err := json.Unmarshal(val, &c); err != nil {
				return err
			}
			contacts = append(contacts, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return contacts, nil
}

func enrollmentKey(userID, courseName string) string {
	return enrollmentKeyPrefix + userID + keySep + courseName
}

func (s *BadgerStore) CreateEnrollment(_ context.Context, e *models.Enrollment) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := enrollmentKey(e.UserID, e.CourseName)
		taken, err := exists(txn, key)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateEnrollment
		}
		return setJSON(txn, key, e)
	})
}

func (s *BadgerStore) FindEnrollment(_ context.Context, userID, courseName string) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, enrollmentKey(userID, courseName), &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *BadgerStore) ListEnrollments(_ context.Context, userID string) ([]models.Enrollment, error) {
	enrollments := []models.Enrollment{}
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(enrollmentKeyPrefix + userID + keySep)
		return scanPrefix(txn, prefix, false, 0, func(val []byte) error {
			var e models.Enrollment
			if err := json.Unmarshal(val, &e); err != nil {
				return err
			}
			enrollments = append(enrollments, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(enrollments, func(i, j int) bool {
		return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt)
	})
	return enrollments, nil
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// Close stops value-log GC, releases the sequences and closes the database.
// Calls after the first return the first call's result.
func (s *BadgerStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopGC)
		var errs []error
		if err := s.msgSeq.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release message sequence: %w", err))
		}
		if err := s.contactSeq.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release contact sequence: %w", err))
		}
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close badger db: %w", err))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

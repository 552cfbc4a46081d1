// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

// Package models defines the persisted entities shared by the store,
// community and api packages, plus the read views returned over HTTP.
//
// Entities carry their full state (including credential hashes) and are
// the unit of serialization for the durable stores; handlers never encode
// them directly and use the View types instead.
package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// User is a registered community member.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Phone        string `json:"phone,omitempty"`
	Location     string `json:"location,omitempty"`
	// Avatar holds display initials.
	Avatar string `json:"avatar"`

	Verified            bool      `json:"verified"`
	VerificationToken   string    `json:"verificationToken,omitempty"`
	VerificationExpires time.Time `json:"verificationExpires,omitempty"`

	JoinedRooms []string  `json:"joinedRooms"`
	LastActive  time.Time `json:"lastActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasJoined reports whether roomName is in the user's joined set.
func (u *User) HasJoined(roomName string) bool {
	for _, r := range u.JoinedRooms {
		if r == roomName {
			return true
		}
	}
	return false
}

// Room is a persistent chat channel.
type Room struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasMember reports whether userID is in the membership list.
func (r *Room) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// Message is an immutable chat message. Author and Avatar are captured at write time.
type Message struct {
	ID        string    `json:"id"`
	RoomName  string    `json:"roomName"`
	UserID    string    `json:"userId"`
	Author    string    `json:"author"`
	Avatar    string    `json:"avatar"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	// Seq orders messages that share a timestamp. Assigned by the store.
	Seq uint64 `json:"seq"`
}

// Contact is a write-once message submitted through the contact form.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Enrollment records a user's enrollment in a course. (UserID, CourseName) is unique.
type Enrollment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	CourseName string    `json:"courseName"`
	Category   string    `json:"category"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

// AvatarInitials returns the first two characters of name, upper-cased.
func AvatarInitials(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= 2 {
		return strings.ToUpper(name)
	}
	runes := []rune(name)
	return strings.ToUpper(string(runes[:2]))
}

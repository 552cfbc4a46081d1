// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package models

import "time"

// UserSummary is returned by register.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

// UserSession is returned by login.
type UserSession struct {
	UserSummary
	JoinedRooms []string `json:"joinedRooms"`
}

// UserProfile is returned by me.
type UserProfile struct {
	UserSummary
	Phone       string   `json:"phone"`
	Location    string   `json:"location"`
	JoinedRooms []string `json:"joinedRooms"`
	Verified    bool     `json:"verified"`
}

// MemberView is a room member with display fields resolved.
type MemberView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// RoomView is a room with its members resolved.
type RoomView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Icon        string       `json:"icon"`
	Description string       `json:"description"`
	Members     []MemberView `json:"members"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Summary returns the public summary of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// Session returns the login view of u.
func (u *User) Session() UserSession {
	return UserSession{UserSummary: u.Summary(), JoinedRooms: nonNil(u.JoinedRooms)}
}

// Profile returns the full profile view of u.
func (u *User) Profile() UserProfile {
	return UserProfile{
		UserSummary: u.Summary(),
		Phone:       u.Phone,
		Location:    u.Location,
		JoinedRooms: nonNil(u.JoinedRooms),
		Verified:    u.Verified,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

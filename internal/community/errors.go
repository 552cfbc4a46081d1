// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package community

import "errors"

// Kind classifies a service failure. The HTTP layer maps kinds to status codes.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Client-facing messages.
const (
	MsgEmailRegistered     = "Email already registered"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgVerifyFirst         = "Please verify your email before logging in"
	MsgInvalidVerification = "Invalid or expired verification token"
	MsgUserNotFound        = "User not found"
	MsgAlreadyVerified     = "Email already verified"
	MsgRoomNotFound        = "Room not found"
	MsgAlreadyEnrolled     = "Already enrolled in this course"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
)

// Error is returned by every Service operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func authError(msg string) *Error {
	return &Error{Kind: KindAuth, Message: msg}
}

func notFoundError(msg string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: err}
}

// persistenceError keeps the underlying message so it is reported verbatim.
func persistenceError(err error) *Error {
	return &Error{Kind: KindPersistence, Message: err.Error(), Err: err}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

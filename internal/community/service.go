// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

// Package community implements the account flows, the room directory, the
// message log and the contact/enrollment resources on top of store.Store.
//
// Every failure is an *Error carrying a Kind; callers switch on KindOf(err)
// rather than on store sentinels.
package community

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/cycles/internal/auth"
	"github.com/tomtom215/cycles/internal/store"
)

// DefaultVerificationTTL is how long an email verification token stays valid.
const DefaultVerificationTTL = 24 * time.Hour

// Mailer queues account emails. Implementations must not block on delivery.
type Mailer interface {
	QueueVerification(ctx context.Context, email, name, token string) error
	QueueWelcome(ctx context.Context, email, name string) error
}

// TokenIssuer issues bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID string) (string, error)
}

// Options configures account behaviour.
type Options struct {
	// RequireVerification rejects logins from unverified accounts.
	RequireVerification bool
	VerificationTTL     time.Duration
}

// Service is the application core shared by the HTTP handlers and the chat hub.
type Service struct {
	store  store.Store
	hasher *auth.PasswordHasher
	tokens TokenIssuer
	mailer Mailer
	opts   Options

	now   func() time.Time
	newID func() string
}

// NewService wires a Service. mailer may be nil, in which case no emails are queued.
func NewService(st store.Store, hasher *auth.PasswordHasher, tokens TokenIssuer, mailer Mailer, opts Options) *Service {
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = DefaultVerificationTTL
	}
	return &Service{
		store:  st,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Ping checks the backing store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/cycles/internal/auth"
	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/metrics"
	"github.com/tomtom215/cycles/internal/models"
	"github.com/tomtom215/cycles/internal/store"
)

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Location string
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	Token string
	User  models.UserSummary
	// VerificationRequired is set when the account must verify its email
	// before password login is accepted.
	VerificationRequired bool
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string
	User  models.UserSession
}

// NormalizeEmail lower-cases and trims email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account, queues the verification email and
// issues a bearer token for the new user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if len(in.Password) > auth.MaxPasswordBytes {
		metrics.RecordAuthAttempt("register", false)
		return nil, validationError(MsgPasswordTooLong)
	}

	email := NormalizeEmail(in.Email)

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		metrics.RecordAuthAttempt("register", false)
		return nil, validationError(MsgEmailRegistered)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, persistenceError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, persistenceError(err)
	}
	token, err := auth.GenerateVerificationToken()
	if err != nil {
		return nil, persistenceError(err)
	}

	now := s.now()
	name := strings.TrimSpace(in.Name)
	user := &models.User{
		ID:                  s.newID(),
		Name:                name,
		Email:               email,
		PasswordHash:        hash,
		Phone:               strings.TrimSpace(in.Phone),
		Location:            strings.TrimSpace(in.Location),
		Avatar:              models.AvatarInitials(name),
		VerificationToken:   token,
		VerificationExpires: now.Add(s.opts.VerificationTTL),
		JoinedRooms:         []string{},
		LastActive:          now,
		CreatedAt:           now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			metrics.RecordAuthAttempt("register", false)
			return nil, validationError(MsgEmailRegistered)
		}
		return nil, persistenceError(err)
	}

	bearer, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, persistenceError(err)
	}

	s.queueVerification(ctx, user)

	metrics.RecordAuthAttempt("register", true)
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("User registered")

	return &RegisterResult{
		Token:                bearer,
		User:                 user.Summary(),
		VerificationRequired: s.opts.RequireVerification,
	}, nil
}

// Login checks credentials and issues a bearer token. Unknown email and wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyAbsent(password)
			metrics.RecordAuthAttempt("login", false)
			return nil, authError(MsgInvalidCredentials)
		}
		return nil, persistenceError(err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		metrics.RecordAuthAttempt("login", false)
		return nil, authError(MsgInvalidCredentials)
	}

	if s.opts.RequireVerification && !user.Verified {
		metrics.RecordAuthAttempt("login", false)
		return nil, authError(MsgVerifyFirst)
	}

	user.LastActive = s.now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, persistenceError(err)
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, persistenceError(err)
	}

	metrics.RecordAuthAttempt("login", true)
	return &LoginResult{Token: token, User: user.Session()}, nil
}

// Me returns the profile of userID.
func (s *Service) Me(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError(MsgUserNotFound, err)
		}
		return nil, persistenceError(err)
	}
	profile := user.Profile()
	return &profile, nil
}

// VerifyEmail marks the holder of token verified and queues the welcome email.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return validationError(MsgInvalidVerification)
	}

	user, err := s.store.GetUserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return validationError(MsgInvalidVerification)
		}
		return persistenceError(err)
	}
	if !user.VerificationExpires.IsZero() && s.now().After(user.VerificationExpires) {
		return validationError(MsgInvalidVerification)
	}

	user.Verified = true
	user.VerificationToken = ""
	user.VerificationExpires = time.Time{}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return persistenceError(err)
	}

	if s.mailer != nil {
		if err := s.mailer.QueueWelcome(ctx, user.Email, user.Name); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("user_id", user.ID).Msg("Failed to queue welcome email")
		}
	}

	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("Email verified")
	return nil
}

// ResendVerification issues a fresh token for an unverified account.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError(MsgUserNotFound, err)
		}
		return persistenceError(err)
	}
	if user.Verified {
		return validationError(MsgAlreadyVerified)
	}

	token, err := auth.GenerateVerificationToken()
	if err != nil {
		return persistenceError(err)
	}
	user.VerificationToken = token
	user.VerificationExpires = s.now().Add(s.opts.VerificationTTL)
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return persistenceError(err)
	}

	s.queueVerification(ctx, user)
	return nil
}

// queueVerification hands the verification email to the outbox. Queue
// failures are logged; the account change has already been stored.
func (s *Service) queueVerification(ctx context.Context, user *models.User) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.QueueVerification(ctx, user.Email, user.Name, user.VerificationToken); err != nil {
		logging.Ctx(ctx).Warn().Err(fmt.Errorf("queue verification: %w", err)).
			Str("user_id", user.ID).
			Msg("Failed to queue verification email")
	}
}

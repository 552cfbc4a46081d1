// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package community

import (
	"context"
	"errors"
	"strings"

	"github.com/tomtom215/cycles/internal/models"
	"github.com/tomtom215/cycles/internal/store"
)

// ContactInput is the contact form.
type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// SubmitContact stores a contact form submission.
func (s *Service) SubmitContact(ctx context.Context, in ContactInput) (*models.Contact, error) {
	c := &models.Contact{
		ID:        s.newID(),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Subject:   strings.TrimSpace(in.Subject),
		Message:   in.Message,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateContact(ctx, c); err != nil {
		return nil, persistenceError(err)
	}
	return c, nil
}

// ListContacts returns every submission, newest first.
func (s *Service) ListContacts(ctx context.Context) ([]models.Contact, error) {
	contacts, err := s.store.ListContacts(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	return contacts, nil
}

// Enroll enrolls userID in courseName. A second enrollment in the same
// course fails with MsgAlreadyEnrolled.
func (s *Service) Enroll(ctx context.Context, userID, courseName, category string) (*models.Enrollment, error) {
	courseName = strings.TrimSpace(courseName)

	if _, err := s.store.FindEnrollment(ctx, userID, courseName); err == nil {
		return nil, validationError(MsgAlreadyEnrolled)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, persistenceError(err)
	}

	e := &models.Enrollment{
		ID:         s.newID(),
		UserID:     userID,
		CourseName: courseName,
		Category:   strings.TrimSpace(category),
		EnrolledAt: s.now(),
	}
	if err := s.store.CreateEnrollment(ctx, e); err != nil {
		if errors.Is(err, store.ErrDuplicateEnrollment) {
			return nil, validationError(MsgAlreadyEnrolled)
		}
		return nil, persistenceError(err)
	}
	return e, nil
}

// MyEnrollments returns the enrollments of userID, newest first.
func (s *Service) MyEnrollments(ctx context.Context, userID string) ([]models.Enrollment, error) {
	enrollments, err := s.store.ListEnrollments(ctx, userID)
	if err != nil {
		return nil, persistenceError(err)
	}
	return enrollments, nil
}

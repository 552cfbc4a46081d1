// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"net/http"

	"github.com/tomtom215/cycles/internal/community"
	"github.com/tomtom215/cycles/internal/models"
)

type contactsResponse struct {
	Contacts []models.Contact `json:"contacts"`
}

type enrollResponse struct {
	Message    string             `json:"message"`
	Enrollment *models.Enrollment `json:"enrollment"`
}

type enrollmentsResponse struct {
	Enrollments []models.Enrollment `json:"enrollments"`
}

// SubmitContact handles POST /api/contact.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	_, err := h.svc.SubmitContact(r.Context(), community.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, messageResponse{Message: "Message sent successfully"})
}

// ListContacts handles GET /api/contacts.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.ListContacts(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	respondJSON(w, http.StatusOK, contactsResponse{Contacts: contacts})
}

// Enroll handles POST /api/courses/enroll.
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	var req EnrollRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	enrollment, err := h.svc.Enroll(r.Context(), userID, req.CourseName, req.Category)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, enrollResponse{Message: "Enrolled successfully", Enrollment: enrollment})
}

// MyCourses handles GET /api/courses/my-courses.
func (h *Handler) MyCourses(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	enrollments, err := h.svc.MyEnrollments(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if enrollments == nil {
		enrollments = []models.Enrollment{}
	}
	respondJSON(w, http.StatusOK, enrollmentsResponse{Enrollments: enrollments})
}

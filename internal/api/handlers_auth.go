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

type registerResponse struct {
	Message              string             `json:"message"`
	Token                string             `json:"token"`
	User                 models.UserSummary `json:"user"`
	VerificationRequired bool               `json:"verificationRequired"`
}

type loginResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	User    models.UserSession `json:"user"`
}

type meResponse struct {
	User *models.UserProfile `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.Register(r.Context(), community.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Location: req.Location,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	message := "Registration successful"
	if result.VerificationRequired {
		message = "Registration successful. Please check your email to verify your account."
	}
	respondJSON(w, http.StatusCreated, registerResponse{
		Message:              message,
		Token:                result.Token,
		User:                 result.User,
		VerificationRequired: result.VerificationRequired,
	})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User,
	})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	profile, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, meResponse{User: profile})
}

// VerifyEmail handles GET /api/auth/verify-email?token=.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.VerifyEmail(r.Context(), r.URL.Query().Get("token")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

// ResendVerification handles POST /api/auth/resend-verification.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.svc.ResendVerification(r.Context(), req.Email); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "Verification email sent"})
}

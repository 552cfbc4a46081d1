// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/models"
	"github.com/tomtom215/cycles/internal/store"
)

type contextKey string

// ClaimsContextKey holds the validated *Claims on authenticated requests.
const ClaimsContextKey contextKey = "claims"

// Error messages returned by Authenticate.
const (
	MsgAuthRequired = "Authentication required"
	MsgInvalidToken = "Invalid token"
	MsgUserNotFound = "User not found"
)

// UserLookup resolves the subject of a token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Middleware enforces bearer authentication
type Middleware struct {
	jwtManager *JWTManager
	users      UserLookup
}

// NewMiddleware creates a new authentication middleware. users may be nil,
// in which case tokens are trusted without checking the account still exists.
func NewMiddleware(jwtManager *JWTManager, users UserLookup) *Middleware {
	return &Middleware{jwtManager: jwtManager, users: users}
}

// Authenticate is middleware that enforces authentication
func (m *Middleware) Authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, MsgAuthRequired)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			writeAuthError(w, http.StatusUnauthorized, MsgInvalidToken)
			return
		}

		if m.users != nil {
			if _, err := m.users.GetUserByID(r.Context(), claims.UserID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					writeAuthError(w, http.StatusUnauthorized, MsgUserNotFound)
					return
				}
				logging.Ctx(r.Context()).Error().Err(err).Msg("User lookup failed during authentication")
				writeAuthError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
		}

		next(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	}
}

// extractBearerToken parses "Bearer <token>". The scheme is case-insensitive.
func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// ContextWithClaims returns a copy of ctx carrying claims.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext returns the claims set by Authenticate.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best effort, status already written
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/cycles/internal/config"
)

const testSecret = "this_is_a_very_long_secret_key_with_32_plus_characters"

func testJWTConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret: testSecret,
		TokenTTL:  DefaultTokenTTL,
	}
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantTTL time.Duration
		wantErr bool
	}{
		{
			name:    "valid secret",
			cfg:     testJWTConfig(),
			wantTTL: 7 * 24 * time.Hour,
		},
		{
			name:    "zero ttl falls back to default",
			cfg:     &config.SecurityConfig{JWTSecret: testSecret},
			wantTTL: DefaultTokenTTL,
		},
		{
			name:    "empty secret",
			cfg:     &config.SecurityConfig{JWTSecret: ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewJWTManager() unexpected error = %v", err)
			}
			if manager.timeout != tt.wantTTL {
				t.Errorf("timeout = %v, want %v", manager.timeout, tt.wantTTL)
			}
		})
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager, err := NewJWTManager(testJWTConfig())
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	token, err := manager.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want user-123", claims.UserID)
	}

	validity := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if validity != 7*24*time.Hour {
		t.Errorf("validity = %v, want 168h", validity)
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	manager, _ := NewJWTManager(testJWTConfig())

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"truncated", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken(%q) error = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer, _ := NewJWTManager(testJWTConfig())
	verifier, _ := NewJWTManager(&config.SecurityConfig{JWTSecret: strings.Repeat("x", 40)})

	token, err := issuer.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := verifier.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	manager, _ := NewJWTManager(testJWTConfig())
	issuedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return issuedAt }

	token, err := manager.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	manager.now = func() time.Time { return issuedAt.Add(7*24*time.Hour - time.Minute) }
	if _, err := manager.ValidateToken(token); err != nil {
		t.Errorf("token rejected before expiry: %v", err)
	}

	manager.now = func() time.Time { return issuedAt.Add(7*24*time.Hour + time.Minute) }
	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() after expiry error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	manager, _ := NewJWTManager(testJWTConfig())

	claims := &Claims{
		UserID: "user-123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken(alg=none) error = %v, want ErrInvalidToken", err)
	}
}

func TestValidateToken_MissingUserID(t *testing.T) {
	manager, _ := NewJWTManager(testJWTConfig())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := manager.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken(no userId) error = %v, want ErrInvalidToken", err)
	}
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "password123" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() = %q, want a bcrypt hash", hash)
	}
	if !h.Verify("password123", hash) {
		t.Error("Verify() = false for the correct password")
	}
	if h.Verify("password124", hash) {
		t.Error("Verify() = true for a wrong password")
	}
	if h.Verify("password123", "not-a-hash") {
		t.Error("Verify() = true for a malformed hash")
	}
	if h.VerifyAbsent("password123") {
		t.Error("VerifyAbsent() = true")
	}
}

func TestNewPasswordHasherCost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cost int
		want int
	}{
		{0, DefaultBcryptCost},
		{bcrypt.MinCost, bcrypt.MinCost},
		{12, 12},
		{bcrypt.MaxCost + 1, DefaultBcryptCost},
	}
	for _, tt := range tests {
		if got := NewPasswordHasher(tt.cost).cost; got != tt.want {
			t.Errorf("NewPasswordHasher(%d).cost = %d, want %d", tt.cost, got, tt.want)
		}
	}
}

func TestGenerateVerificationToken(t *testing.T) {
	t.Parallel()

	a, err := GenerateVerificationToken()
	if err != nil {
		t.Fatalf("GenerateVerificationToken() error = %v", err)
	}
	b, _ := GenerateVerificationToken()

	if len(a) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(a))
	}
	if strings.Trim(a, "0123456789abcdef") != "" {
		t.Errorf("token %q is not lower-case hex", a)
	}
	if a == b {
		t.Error("two tokens are identical")
	}
}

func TestPasswordHasher_RejectsOverByteLimit(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	// 40 characters, 120 bytes.
	if _, err := h.Hash(strings.Repeat("€", 40)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Hash() error = %v, want ErrPasswordTooLong", err)
	}
	if _, err := h.Hash(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Errorf("Hash(%d bytes) error = %v", MaxPasswordBytes, err)
	}
}

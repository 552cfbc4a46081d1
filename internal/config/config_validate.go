// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const minJWTSecretLength = 32

var (
	validLogFormats   = []string{"json", "console"}
	validLogLevels    = []string{"trace", "debug", "info", "warn", "error"}
	validEnvironments = []string{"development", "staging", "production"}
	validBackends     = []string{BackendMemory, BackendBadger, BackendPostgres}

	// placeholderMarkers flag secrets copied from examples.
	placeholderMarkers = []string{"change", "replace", "your-secret", "example", "placeholder"}
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateMail(); err != nil {
		return err
	}
	if err := c.validateWebSocket(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !contains(validEnvironments, c.Server.Environment) {
		return fmt.Errorf("ENVIRONMENT must be one of %v, got %q", validEnvironments, c.Server.Environment)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if s.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(s.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.IsProduction() && containsPlaceholder(s.JWTSecret) {
		return fmt.Errorf("JWT_SECRET looks like a placeholder value; generate a random secret for production")
	}
	if s.TokenTTL < time.Minute {
		return fmt.Errorf("TOKEN_TTL must be at least 1m")
	}
	if s.BcryptCost < bcrypt.MinCost || s.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if s.VerificationTTL <= 0 {
		return fmt.Errorf("VERIFICATION_TTL must be positive")
	}
	if !s.RateLimitDisabled {
		if s.RateLimitRequests < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if s.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !contains(validBackends, c.Storage.Backend) {
		return fmt.Errorf("STORAGE_BACKEND must be one of %v, got %q", validBackends, c.Storage.Backend)
	}
	switch c.Storage.Backend {
	case BackendBadger:
		if c.Storage.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required when STORAGE_BACKEND=badger")
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	}
	return nil
}

func (c *Config) validateMail() error {
	if c.Mail.FrontendURL == "" {
		return fmt.Errorf("FRONTEND_URL is required")
	}
	if c.Mail.SMTPHost != "" && (c.Mail.SMTPPort < 1 || c.Mail.SMTPPort > 65535) {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", c.Mail.SMTPPort)
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	if c.WebSocket.EventsPerSecond <= 0 {
		return fmt.Errorf("WS_EVENTS_PER_SECOND must be positive")
	}
	if c.WebSocket.EventBurst < 1 {
		return fmt.Errorf("WS_EVENT_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !contains(validLogLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("LOG_LEVEL must be one of %v, got %q", validLogLevels, c.Logging.Level)
	}
	if !contains(validLogFormats, strings.ToLower(c.Logging.Format)) {
		return fmt.Errorf("LOG_FORMAT must be one of %v, got %q", validLogFormats, c.Logging.Format)
	}
	return nil
}

func containsPlaceholder(secret string) bool {
	lower := strings.ToLower(secret)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

// Package config loads the Cycles configuration with koanf.
//
// Loading order (later layers win):
//  1. Defaults from defaultConfig()
//  2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/cycles/config.yaml)
//  3. Environment variables listed in envMappings
//
// The result is validated before it is returned.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Storage   StorageConfig   `koanf:"storage"`
	Mail      MailConfig      `koanf:"mail"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Seed      SeedConfig      `koanf:"seed"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// Environment is development, staging or production.
	Environment string `koanf:"environment"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds credential, CORS and HTTP rate limit settings.
type SecurityConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
	// TokenTTL is the bearer token validity window.
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`
	// RequireVerification rejects logins from accounts that have not verified their email.
	RequireVerification bool          `koanf:"require_verification"`
	VerificationTTL     time.Duration `koanf:"verification_ttl"`
	CORSOrigins         []string      `koanf:"cors_origins"`
	RateLimitRequests   int           `koanf:"rate_limit_requests"`
	RateLimitWindow     time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled   bool          `koanf:"rate_limit_disabled"`
}

// Storage backends accepted by StorageConfig.Backend.
const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend     string `koanf:"backend"`
	BadgerPath  string `koanf:"badger_path"`
	PostgresDSN string `koanf:"postgres_dsn"`
}

// MailConfig configures outbound account emails.
type MailConfig struct {
	From string `koanf:"from"`
	// FrontendURL is the base for links placed in emails.
	FrontendURL string `koanf:"frontend_url"`
	// SMTPHost enables SMTP delivery. When empty, emails are only logged.
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
}

// WebSocketConfig configures the chat transport.
type WebSocketConfig struct {
	EventsPerSecond float64 `koanf:"events_per_second"`
	EventBurst      int     `koanf:"event_burst"`
	// AllowedOrigins for the upgrade handshake; "*" allows any origin.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// SeedConfig controls bootstrap data.
type SeedConfig struct {
	Rooms    bool `koanf:"rooms"`
	TestUser bool `koanf:"test_user"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `koanf:"level"`
	// Format is json or console.
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

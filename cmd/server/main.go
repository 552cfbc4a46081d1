// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/cycles/internal/api"
	"github.com/tomtom215/cycles/internal/auth"
	"github.com/tomtom215/cycles/internal/community"
	"github.com/tomtom215/cycles/internal/config"
	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/mail"
	"github.com/tomtom215/cycles/internal/store"
	"github.com/tomtom215/cycles/internal/supervisor"
	"github.com/tomtom215/cycles/internal/supervisor/services"
	ws "github.com/tomtom215/cycles/internal/websocket"
)

// storeMonitorInterval is how often the data layer pings the store.
const storeMonitorInterval = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential setup steps
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Backend).
		Bool("require_verification", cfg.Security.RequireVerification).
		Msg("Starting Cycles with supervisor tree")

	// === STORAGE ===
	st, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Str("backend", cfg.Storage.Backend).Msg("Store initialized")

	// === CREDENTIALS ===
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("create JWT manager: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.Security.BcryptCost)

	// === MAIL ===
	pubSub := mail.NewPubSub()
	defer func() {
		if err := pubSub.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing mail pub/sub")
		}
	}()

	renderer, err := mail.NewRenderer(cfg.Mail.FrontendURL, humanDuration(cfg.Security.VerificationTTL))
	if err != nil {
		return fmt.Errorf("create mail renderer: %w", err)
	}
	transport, err := mail.NewTransport(cfg.Mail)
	if err != nil {
		return fmt.Errorf("create mail transport: %w", err)
	}
	logging.Info().Str("transport", transport.Name()).Msg("Mail delivery configured")

	newDispatcher := func() (services.MailDispatcher, error) {
		return mail.NewDispatcher(pubSub, pubSub, renderer, transport, mail.DefaultDispatcherConfig())
	}

	// === COMMUNITY ===
	svc := community.NewService(st, hasher, jwtManager, mail.NewOutbox(pubSub), community.Options{
		RequireVerification: cfg.Security.RequireVerification,
		VerificationTTL:     cfg.Security.VerificationTTL,
	})

	if err := seed(ctx, cfg, svc); err != nil {
		return err
	}

	// === TRANSPORT ===
	hub := ws.NewHub()
	handler := api.NewHandler(svc, hub, cfg)
	users := auth.NewCachedUserLookup(st, auth.DefaultUserCacheSize, auth.DefaultUserCacheTTL)
	router := api.NewRouter(handler, auth.NewMiddleware(jwtManager, users), cfg)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       2 * cfg.Server.ReadTimeout,
	}

	// === SUPERVISOR TREE ===
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataService(services.NewStoreMonitorService(st, cfg.Storage.Backend, storeMonitorInterval))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(services.NewMailDispatcherService(newDispatcher))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		cancel()
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

// seed inserts the starter rooms and, when enabled, the test account.
func seed(ctx context.Context, cfg *config.Config, svc *community.Service) error {
	if cfg.Seed.Rooms {
		if _, err := svc.SeedRooms(ctx); err != nil {
			return fmt.Errorf("seed rooms: %w", err)
		}
	}
	if cfg.Seed.TestUser {
		if cfg.IsProduction() {
			logging.Warn().Msg("Refusing to seed the test account in production")
			return nil
		}
		if err := svc.SeedTestUser(ctx); err != nil {
			return fmt.Errorf("seed test user: %w", err)
		}
	}
	return nil
}

// humanDuration formats d for email copy, e.g. "24 hours" or "30 minutes".
func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%(24*time.Hour) == 0 && d > 24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

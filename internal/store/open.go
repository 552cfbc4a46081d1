// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomtom215/cycles/internal/config"
	"github.com/tomtom215/cycles/internal/logging"
)

// Open builds the Store selected by cfg.Backend and wraps it with metrics.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		s   Store
		err error
	)

	switch cfg.Backend {
	case config.BackendMemory, "":
		s = NewMemoryStore()
	case config.BackendBadger:
		if err := os.MkdirAll(filepath.Clean(cfg.BadgerPath), 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		s, err = OpenBadgerStore(cfg.BadgerPath)
	case config.BackendPostgres:
		s, err = OpenPostgresStore(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == "" {
		backend = config.BackendMemory
	}
	logging.Info().Str("backend", backend).Msg("Storage backend initialized")
	return NewInstrumented(s, backend), nil
}

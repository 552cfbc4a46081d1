// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package services

import (
	"context"
	"time"

	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/metrics"
)

// Pinger is satisfied by store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreMonitorService pings the store on an interval and publishes the
// result as the store_up gauge. Only state changes are logged.
type StoreMonitorService struct {
	store    Pinger
	backend  string
	interval time.Duration
	timeout  time.Duration
	name     string
}

// NewStoreMonitorService creates a monitor for store. Non-positive
// intervals default to 30s.
func NewStoreMonitorService(store Pinger, backend string, interval time.Duration) *StoreMonitorService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := 5 * time.Second
	if timeout > interval {
		timeout = interval
	}
	return &StoreMonitorService{
		store:    store,
		backend:  backend,
		interval: interval,
		timeout:  timeout,
		name:     "store-monitor",
	}
}

// Serve implements suture.Service.
func (s *StoreMonitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	up := s.probe(ctx, true)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			up = s.probe(ctx, up)
		}
	}
}

// probe pings once and returns the new state. wasUp is the previous state.
func (s *StoreMonitorService) probe(ctx context.Context, wasUp bool) bool {
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.store.Ping(pingCtx)
	up := err == nil
	metrics.SetStoreUp(s.backend, up)

	switch {
	case wasUp && !up:
		logging.Error().Err(err).Str("backend", s.backend).Msg("Store health check failed")
	case !wasUp && up:
		logging.Info().Str("backend", s.backend).Msg("Store health check recovered")
	}
	return up
}

func (s *StoreMonitorService) String() string {
	return s.name
}

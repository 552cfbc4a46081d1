// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cycles/internal/websocket"
)

type failingHub struct{ err error }

func (f failingHub) RunWithContext(context.Context) error { return f.err }

func TestWebSocketHubService_RunsHub(t *testing.T) {
	hub := websocket.NewHub()
	svc := NewWebSocketHubService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	statsCtx, statsCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer statsCancel()
	stats, err := hub.Stats(statsCtx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Clients != 0 {
		t.Errorf("clients = %d, want 0", stats.Clients)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestWebSocketHubService_PropagatesError(t *testing.T) {
	boom := errors.New("hub crashed")
	if err := NewWebSocketHubService(failingHub{err: boom}).Serve(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Serve() = %v, want %v", err, boom)
	}
}

func TestWebSocketHubService_RestartedBySupervisor(t *testing.T) {
	hub := websocket.NewHub()
	sup := suture.New("test", suture.Spec{FailureBackoff: 10 * time.Millisecond, Timeout: time.Second})
	sup.Add(NewWebSocketHubService(hub))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	statsCtx, statsCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer statsCancel()
	if _, err := hub.Stats(statsCtx); err != nil {
		t.Fatalf("hub not serving under supervisor: %v", err)
	}

	cancel()
	<-errCh
}

func TestWebSocketHubService_String(t *testing.T) {
	if got := NewWebSocketHubService(failingHub{}).String(); got != "websocket-hub" {
		t.Errorf("String() = %q", got)
	}
}

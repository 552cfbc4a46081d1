// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*mockService)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor is nil")
	}

	want := DefaultTreeConfig()
	if tree.config != want {
		t.Errorf("config = %+v, want %+v", tree.config, want)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureBackoff:  50 * time.Millisecond,
		ShutdownTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	monitor := newMockService("store-monitor")
	hub := newMockService("websocket-hub")
	mail := newMockService("mail-dispatcher")
	http := newMockService("http-server")

	tree.AddDataService(monitor)
	tree.AddMessagingService(hub)
	tree.AddMessagingService(mail)
	tree.AddAPIService(http)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	all := []*mockService{monitor, hub, mail, http}
	if !waitFor(t, 2*time.Second, func() bool {
		for _, svc := range all {
			if svc.starts() == 0 {
				return false
			}
		}
		return true
	}) {
		t.Fatal("not every service started")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down")
	}

	for _, svc := range all {
		if svc.stops() != svc.starts() {
			t.Errorf("%s: starts = %d, stops = %d", svc, svc.starts(), svc.stops())
		}
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport() error = %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}

func TestSupervisorTree_RestartsFailedService(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	flaky := newMockService("mail-dispatcher")
	flaky.setFailCount(2)
	tree.AddMessagingService(flaky)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	if !waitFor(t, 3*time.Second, func() bool { return flaky.starts() >= 3 }) {
		t.Fatalf("starts = %d, want at least 3", flaky.starts())
	}

	cancel()
	<-errCh
}

func TestSupervisorTree_FailureIsIsolatedToLayer(t *testing.T) {
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 100,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}

	broken := newMockService("mail-dispatcher")
	broken.setError(errors.New("smtp unreachable"))
	http := newMockService("http-server")

	tree.AddMessagingService(broken)
	tree.AddAPIService(http)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	if !waitFor(t, 2*time.Second, func() bool { return broken.starts() >= 3 }) {
		t.Fatalf("broken service starts = %d", broken.starts())
	}
	if http.starts() != 1 {
		t.Errorf("http-server starts = %d, want 1", http.starts())
	}

	cancel()
	<-errCh
}

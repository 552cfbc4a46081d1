// Cycles - Community Platform and Real-Time Chat Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cycles

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/cycles/internal/auth"
	"github.com/tomtom215/cycles/internal/community"
	"github.com/tomtom215/cycles/internal/config"
	"github.com/tomtom215/cycles/internal/logging"
	"github.com/tomtom215/cycles/internal/store"
	ws "github.com/tomtom215/cycles/internal/websocket"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

const testOrigin = "http://localhost:3000"

// pingableStore lets tests fail the readiness probe.
type pingableStore struct {
	*store.MemoryStore
	pingErr error
}

func (p *pingableStore) Ping(ctx context.Context) error {
	if p.pingErr != nil {
		return p.pingErr
	}
	return p.MemoryStore.Ping(ctx)
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	svc     *community.Service
	store   *pingableStore
	hub     *ws.Hub
	cfg     *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Security: config.SecurityConfig{
			JWTSecret:         "k7Qx9mZp2Lw4Rt8Vb1Nc6Hd3Jf5Gs0Ya",
			TokenTTL:          time.Hour,
			BcryptCost:        bcrypt.MinCost,
			CORSOrigins:       []string{testOrigin},
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: true,
		},
		WebSocket: config.WebSocketConfig{
			EventsPerSecond: 100,
			EventBurst:      100,
			AllowedOrigins:  []string{testOrigin},
		},
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	st := &pingableStore{MemoryStore: store.NewMemoryStore()}
	svc := community.NewService(st, auth.NewPasswordHasher(cfg.Security.BcryptCost), jwtManager, nil, community.Options{
		RequireVerification: cfg.Security.RequireVerification,
	})
	if _, err := svc.SeedRooms(context.Background()); err != nil {
		t.Fatalf("SeedRooms() error = %v", err)
	}

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.RunWithContext(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	handler := NewHandler(svc, hub, cfg)
	router := NewRouter(handler, auth.NewMiddleware(jwtManager, st), cfg)

	return &testServer{
		t:       t,
		handler: router.SetupChi(),
		svc:     svc,
		store:   st,
		hub:     hub,
		cfg:     cfg,
	}
}

// do sends a request through the router. body is JSON-encoded unless nil.
func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns its token.
func (s *testServer) register(name, email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": "password123",
	}, "")
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: status = %d, body = %s", email, rec.Code, rec.Body.String())
	}
	var resp registerResponse
	decodeBody(s.t, rec, &resp)
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func errorText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	decodeBody(t, rec, &resp)
	return resp.Error
}

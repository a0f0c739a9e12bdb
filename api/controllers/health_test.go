package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/seedling-limiter/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get(envHeader) != "dev" {
		t.Fatalf("expected env header, got %q", resp.Header().Get(envHeader))
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	tests := []struct {
		name  string
		db    stubPinger
		redis stubPinger
		want  int
		body  string
	}{
		{name: "all healthy", want: http.StatusOK, body: `"status":"ready"`},
		{name: "db down", db: stubPinger{err: errors.New("refused")}, want: http.StatusServiceUnavailable, body: "DEPENDENCY_ERROR"},
		{name: "redis down", redis: stubPinger{err: errors.New("refused")}, want: http.StatusServiceUnavailable, body: "DEPENDENCY_ERROR"},
	}

	for _, tt := range tests {
		resp := httptest.NewRecorder()
		HealthReady(cfg, nil, tt.db, tt.redis).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		if resp.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, resp.Code)
		}
		if !strings.Contains(resp.Body.String(), tt.body) {
			t.Fatalf("%s: expected %s in body %s", tt.name, tt.body, resp.Body.String())
		}
	}
}

func TestPublicPing(t *testing.T) {
	resp := httptest.NewRecorder()
	PublicPing().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/public/ping", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"scope":"public"`) {
		t.Fatalf("unexpected ping response %d %s", resp.Code, resp.Body.String())
	}
}

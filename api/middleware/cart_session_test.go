package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/seedling-limiter/pkg/logger"
)

func TestCartSessionIssuesAndEchoes(t *testing.T) {
	var seen string
	handler := CartSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CartSessionFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if seen == "" {
		t.Fatal("expected a session to be issued")
	}
	if rec.Header().Get(CartSessionHeader) != seen {
		t.Fatalf("expected issued session echoed, got %q want %q", rec.Header().Get(CartSessionHeader), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, "Existing-Session")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != "existing-session" {
		t.Fatalf("expected client session to be kept, got %q", seen)
	}
}

func TestCartSessionRejectsMalformedHeader(t *testing.T) {
	called := false
	handler := CartSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartSessionHeader, "bad:session")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || called {
		t.Fatalf("expected 400 without calling handler, got %d called=%v", rec.Code, called)
	}
}

func TestCartSessionTagsLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})
	handler := CartSession(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logg.Info(r.Context(), "inside")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CartSessionHeader, "abc")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !strings.Contains(buf.String(), `"cart_session":"abc"`) {
		t.Fatalf("expected cart_session field, got %s", buf.String())
	}
}

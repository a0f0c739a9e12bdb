package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/seedling-limiter/pkg/config"
	"github.com/angelmondragon/seedling-limiter/pkg/security"
)

func TestAdminKey(t *testing.T) {
	hash, err := security.HashKey("hashed-secret", security.ArgonParams{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32})
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}

	tests := []struct {
		name   string
		cfg    config.AdminConfig
		header string
		bearer string
		want   int
	}{
		{name: "valid header", cfg: config.AdminConfig{Key: "s3cret"}, header: "s3cret", want: http.StatusOK},
		{name: "valid bearer", cfg: config.AdminConfig{Key: "s3cret"}, bearer: "Bearer s3cret", want: http.StatusOK},
		{name: "missing key", cfg: config.AdminConfig{Key: "s3cret"}, want: http.StatusUnauthorized},
		{name: "wrong key", cfg: config.AdminConfig{Key: "s3cret"}, header: "nope", want: http.StatusForbidden},
		{name: "disabled", cfg: config.AdminConfig{}, header: "anything", want: http.StatusForbidden},
		{name: "hash match", cfg: config.AdminConfig{KeyHash: hash}, header: "hashed-secret", want: http.StatusOK},
		{name: "hash wins over plaintext", cfg: config.AdminConfig{Key: "s3cret", KeyHash: hash}, header: "s3cret", want: http.StatusForbidden},
		{name: "malformed hash", cfg: config.AdminConfig{KeyHash: "not-a-hash"}, header: "x", want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/rules", nil)
		if tt.header != "" {
			req.Header.Set(AdminKeyHeader, tt.header)
		}
		if tt.bearer != "" {
			req.Header.Set("Authorization", tt.bearer)
		}
		rec := httptest.NewRecorder()
		AdminKey(tt.cfg, nil)(okHandler()).ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("%s: expected %d got %d", tt.name, tt.want, rec.Code)
		}
	}
}

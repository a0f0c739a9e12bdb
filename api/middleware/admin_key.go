package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/angelmondragon/seedling-limiter/api/responses"
	"github.com/angelmondragon/seedling-limiter/pkg/config"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
	"github.com/angelmondragon/seedling-limiter/pkg/security"
)

const AdminKeyHeader = "X-Admin-Key"

// AdminKey guards admin routes with a shared key. Without a configured key or
// hash the admin surface is disabled entirely.
func AdminKey(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	hash := strings.TrimSpace(cfg.KeyHash)
	expected := []byte(strings.TrimSpace(cfg.Key))

	matches := func(provided string) (bool, error) {
		if hash != "" {
			return security.VerifyKey(provided, hash)
		}
		return subtle.ConstantTimeCompare([]byte(provided), expected) == 1, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !cfg.Enabled() {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin access disabled"))
				return
			}

			provided := strings.TrimSpace(r.Header.Get(AdminKeyHeader))
			if provided == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
					provided = strings.TrimSpace(auth[7:])
				}
			}
			if provided == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin key required"))
				return
			}

			ok, err := matches(provided)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeConfiguration, err, "admin key hash is malformed"))
				return
			}
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid admin key"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

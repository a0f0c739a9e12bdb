package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/seedling-limiter/api/responses"
	"github.com/angelmondragon/seedling-limiter/api/validators"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
)

const CartSessionHeader = "X-Cart-Session"

// CartSession binds the storefront cart session to the request. A new session
// is issued when the header is absent and is always echoed back.
func CartSession(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := r.Header.Get(CartSessionHeader)
			sessionID := uuid.NewString()
			if raw != "" {
				parsed, err := validators.ParseCartSession(raw)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart session header").
						WithDetails(map[string]any{"header": CartSessionHeader}))
					return
				}
				sessionID = parsed
			}

			w.Header().Set(CartSessionHeader, sessionID)
			ctx = WithCartSession(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

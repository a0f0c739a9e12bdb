package cart

import (
	"net/http"

	"github.com/angelmondragon/seedling-limiter/api/middleware"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
)

// UpdateQuantityRequest is the PATCH body for a cart line. Zero removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,max=1000000"`
}

type quantityResponse struct {
	VariationID int64 `json:"variation_id"`
	Quantity    int   `json:"quantity"`
}

func cartSessionFromRequest(r *http.Request) (string, error) {
	if r == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart session missing")
	}
	session := middleware.CartSessionFromContext(r.Context())
	if session == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart session missing").
			WithDetails(map[string]any{"header": middleware.CartSessionHeader})
	}
	return session, nil
}

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/seedling-limiter/api/middleware"
	"github.com/angelmondragon/seedling-limiter/api/responses"
	"github.com/angelmondragon/seedling-limiter/api/validators"
	"github.com/angelmondragon/seedling-limiter/internal/enforcement"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
)

// LimiterSettings exposes the per-rule minimum and step used by storefront scripts.
func LimiterSettings(svc enforcement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "limiter service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.ClientSettings(r.Context()))
	}
}

// ProductQuantityArgs returns the quantity selector settings for a product page.
func ProductQuantityArgs(svc enforcement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "limiter service unavailable"))
			return
		}

		productID, err := validators.ParseID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variationID, err := validators.ParseQueryID(r, "variation_id", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session := middleware.CartSessionFromContext(r.Context())
		args, err := svc.QuantityArgs(r.Context(), session, productID, variationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, args)
	}
}

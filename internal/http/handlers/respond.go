package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cartpage"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}

// writeDomainError maps catalog, cart and hydration errors to a status.
// A failed cart page wraps the catalog error, so it is matched first.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cartpage.ErrHydration):
		hlog.FromRequest(r).Warn().Err(err).Msg("cart page load failed")
		WriteError(w, r, http.StatusBadGateway, "could not load cart products")
	case errors.Is(err, catalog.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrInvalidInput), errors.Is(err, cart.ErrInvalidProductID),
		errors.Is(err, cart.ErrInvalidQuantity):
		WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
		WriteError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("catalog-service request failed")
		WriteError(w, r, http.StatusBadGateway, "catalog-service request failed")
	}
}

func productID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/http/dto"
)

const maxPageLimit = 100

// Catalog is the read side of the catalog the handlers need.
// catalog.Service implements it.
type Catalog interface {
	Page(ctx context.Context, page, limit int) ([]catalog.Product, error)
	Product(ctx context.Context, id int) (catalog.Product, error)
	Suggested(ctx context.Context, exclude int) ([]catalog.Product, error)
}

type CatalogHandler struct {
	catalog     Catalog
	cookie      cart.CookieOptions
	defaultSize int
}

func NewCatalogHandler(c Catalog, cookie cart.CookieOptions, pageSize int) *CatalogHandler {
	return &CatalogHandler{catalog: c, cookie: cookie, defaultSize: pageSize}
}

// ListProducts serves one page of the listing feed.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page", 1)
	if !ok || page < 1 {
		WriteError(w, r, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, ok := queryInt(r, "limit", h.defaultSize)
	if !ok || limit < 1 {
		WriteError(w, r, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, maxPageLimit)

	products, err := h.catalog.Page(r.Context(), page, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	inCart := cart.NewStore(cart.NewCookieSlot(w, r, h.cookie)).Load()
	writeJSON(w, http.StatusOK, dto.ProductPage{
		Items: dto.NewProducts(products, inCart),
		Page:  page,
		Limit: limit,
	})
}

// GetProduct serves the detail view with suggestions.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	suggested, err := h.catalog.Suggested(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	inCart := cart.NewStore(cart.NewCookieSlot(w, r, h.cookie)).Load()
	writeJSON(w, http.StatusOK, dto.ProductDetail{
		Product:   dto.NewProduct(p, inCart),
		Suggested: dto.NewProducts(suggested, inCart),
	})
}

func queryInt(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

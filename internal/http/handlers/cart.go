package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cartpage"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/http/dto"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

type CartHandler struct {
	catalog Catalog
	asm     *cartpage.Assembler
	pub     events.CartPublisher
	cookie  cart.CookieOptions
}

func NewCartHandler(c Catalog, asm *cartpage.Assembler, pub events.CartPublisher, cookie cart.CookieOptions) *CartHandler {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &CartHandler{catalog: c, asm: asm, pub: pub, cookie: cookie}
}

// store opens the cart cookie of this exchange. Item changes are published
// before the handler writes its response. A slow broker delays the response
// by at most the publish timeout and a failed publish is only logged.
func (h *CartHandler) store(w http.ResponseWriter, r *http.Request) *cart.Store {
	log := hlog.FromRequest(r)
	s := cart.NewStore(cart.NewCookieSlot(w, r, h.cookie), cart.WithLogger(*log))

	meta := events.EventMeta{CorrelationID: middleware.GetCorrelationID(r.Context())}
	s.Subscribe(events.Notify(context.WithoutCancel(r.Context()), h.pub, meta, *log))
	return s
}

func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.CartCount{Count: h.store(w, r).Count()})
}

// AddItem puts one more of a catalog product in the cart.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}

	s := h.store(w, r)
	if err := h.ensureInCatalog(r.Context(), s, id); err != nil {
		writeDomainError(w, r, err)
		return
	}

	c, err := s.Add(id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ItemChanged{ProductID: id, Quantity: c.Quantity, Count: c.Cart.Count(), Added: true})
}

// ChangeQuantity applies a +/- delta from a listing or detail view.
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}
	var req dto.ChangeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	s := h.store(w, r)
	if req.Delta > 0 {
		if err := h.ensureInCatalog(r.Context(), s, id); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	c, err := s.ChangeQuantity(id, req.Delta)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ItemChanged{ProductID: id, Quantity: c.Quantity, Count: c.Cart.Count()})
}

// SetQuantity sets an explicit quantity; zero or less removes the product.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}
	var req dto.SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		WriteError(w, r, http.StatusBadRequest, "quantity is required")
		return
	}

	s := h.store(w, r)
	if *req.Quantity > 0 {
		if err := h.ensureInCatalog(r.Context(), s, id); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	c, err := s.SetQuantity(id, *req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ItemChanged{ProductID: id, Quantity: c.Quantity, Count: c.Cart.Count()})
}

// GetCart renders the cart page.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	page := cartpage.NewPage(h.store(w, r), h.asm)

	snap, err := page.Mount(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCartPage(snap))
}

// ChangeLine is the +/- control on the cart page. The response carries the
// updated lines and subtotal together with the new cookie.
func (h *CartHandler) ChangeLine(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "invalid product id")
		return
	}
	var req dto.ChangeQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	page := cartpage.NewPage(h.store(w, r), h.asm)
	if _, err := page.Mount(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}

	snap, err := page.Change(id, req.Delta)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCartPage(snap))
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotImplemented, "checkout is not available")
}

// ensureInCatalog checks a product exists before it first enters the cart.
// Products already in the cart are not checked again.
func (h *CartHandler) ensureInCatalog(ctx context.Context, s *cart.Store, id int) error {
	if s.Load()[id] > 0 {
		return nil
	}
	_, err := h.catalog.Product(ctx, id)
	return err
}

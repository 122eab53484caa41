package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("product not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrCacheMiss    = errors.New("cache miss")
)

// Product is a catalog record. The storefront never mutates catalog fields.
type Product struct {
	ID              int              `json:"id"`
	Title           string           `json:"title"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	Image           string           `json:"image"`
	Rating          *Rating          `json:"rating,omitempty"`
}

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Discounted reports whether a positive discounted price is set.
// A discounted price of exactly zero counts as absent.
func (p Product) Discounted() bool {
	return p.DiscountedPrice != nil && p.DiscountedPrice.IsPositive()
}

// EffectivePrice is the unit price a cart line is charged at.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.Discounted() {
		return *p.DiscountedPrice
	}
	return p.Price
}

// Source is the remote catalog service.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ListPage(ctx context.Context, page, limit int) ([]Product, error)
	GetProduct(ctx context.Context, id int) (Product, error)
}

// Cache stores product records by id. GetProduct returns ErrCacheMiss for unknown ids.
type Cache interface {
	GetProduct(ctx context.Context, id int) (Product, error)
	SetProduct(ctx context.Context, p Product) error
}

package dto

import (
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is a catalog record annotated for display: the price to charge,
// the crossed out price when discounted, and the quantity already in the cart.
type Product struct {
	ID             int     `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	Image          string  `json:"image"`
	Rating         *Rating `json:"rating,omitempty"`
	EffectivePrice string  `json:"effectivePrice"`
	OriginalPrice  string  `json:"originalPrice,omitempty"`
	InCart         int     `json:"inCart"`
}

type ProductPage struct {
	Items []Product `json:"items"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type ProductDetail struct {
	Product   Product   `json:"product"`
	Suggested []Product `json:"suggested"`
}

func NewProduct(p catalog.Product, inCart cart.Mapping) Product {
	out := Product{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		Category:       p.Category,
		Image:          p.Image,
		EffectivePrice: p.EffectivePrice().StringFixed(2),
		InCart:         inCart[p.ID],
	}
	if p.Discounted() {
		out.OriginalPrice = p.Price.StringFixed(2)
	}
	if p.Rating != nil {
		out.Rating = &Rating{Rate: p.Rating.Rate, Count: p.Rating.Count}
	}
	return out
}

func NewProducts(ps []catalog.Product, inCart cart.Mapping) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, NewProduct(p, inCart))
	}
	return out
}

package dto

import (
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cartpage"
)

type CartLine struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	UnitPrice string  `json:"unitPrice"`
	LineTotal string  `json:"lineTotal"`
}

type CartPage struct {
	Items       []CartLine `json:"items"`
	Subtotal    string     `json:"subtotal"`
	Shipping    string     `json:"shipping"`
	Total       string     `json:"total"`
	Count       int        `json:"count"`
	Empty       bool       `json:"empty"`
	GetProducts string     `json:"getProducts,omitempty"`
}

type CartCount struct {
	Count int `json:"count"`
}

type ItemChanged struct {
	ProductID int  `json:"productId"`
	Quantity  int  `json:"quantity"`
	Count     int  `json:"count"`
	Added     bool `json:"added,omitempty"`
}

type ChangeQuantityRequest struct {
	Delta int `json:"delta"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func NewCartPage(s cartpage.Snapshot) CartPage {
	out := CartPage{
		Items:    make([]CartLine, 0, len(s.Lines)),
		Subtotal: cartpage.FormatMoney(s.Subtotal),
		Shipping: "free",
		// shipping is free, so the total is the subtotal
		Total: cartpage.FormatMoney(s.Subtotal),
		Count: s.Count(),
		Empty: s.Empty(),
	}
	if out.Empty {
		out.GetProducts = "/"
	}

	for _, l := range s.Lines {
		p := NewProduct(l.Product, nil)
		p.InCart = l.Quantity
		out.Items = append(out.Items, CartLine{
			Product:   p,
			Quantity:  l.Quantity,
			UnitPrice: cartpage.FormatMoney(l.UnitPrice()),
			LineTotal: cartpage.FormatMoney(l.Total()),
		})
	}
	return out
}

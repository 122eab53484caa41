package cartpage

import (
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

type Line struct {
	Product  catalog.Product
	Quantity int
}

func (l Line) UnitPrice() decimal.Decimal {
	return l.Product.EffectivePrice()
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is the cart joined with its product records, ordered by product id.
// It is rebuilt, never patched.
type Snapshot struct {
	Lines    []Line
	Subtotal decimal.Decimal
}

func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

func (s Snapshot) Count() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

func (s Snapshot) Has(id int) bool {
	for _, l := range s.Lines {
		if l.Product.ID == id {
			return true
		}
	}
	return false
}

// FormatMoney renders an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// join pairs each product with its quantity in m. Products no longer in m
// are left out.
func join(products []catalog.Product, m cart.Mapping) Snapshot {
	s := Snapshot{Lines: make([]Line, 0, len(products)), Subtotal: decimal.Zero}
	for _, p := range products {
		q, ok := m[p.ID]
		if !ok {
			continue
		}
		l := Line{Product: p, Quantity: q}
		s.Lines = append(s.Lines, l)
		s.Subtotal = s.Subtotal.Add(l.Total())
	}
	return s
}

func (s Snapshot) products() []catalog.Product {
	out := make([]catalog.Product, len(s.Lines))
	for i, l := range s.Lines {
		out[i] = l.Product
	}
	return out
}

package cart

import (
	"maps"
	"math"
	"slices"
)

// MaxQuantity bounds a single cart line.
const MaxQuantity = 9999

// Mapping is the cart: product id to a positive quantity. A missing key means
// the product is not in the cart.
type Mapping map[int]int

// Count is the sum of all quantities, saturating at math.MaxInt.
func (m Mapping) Count() int {
	n := 0
	for _, q := range m {
		if q <= 0 {
			continue
		}
		if q > math.MaxInt-n {
			return math.MaxInt
		}
		n += q
	}
	return n
}

func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	maps.Copy(out, m)
	return out
}

// IDs returns the product ids in ascending order.
func (m Mapping) IDs() []int {
	return slices.Sorted(maps.Keys(m))
}

func (m Mapping) Equal(o Mapping) bool {
	return maps.Equal(m, o)
}

// valid drops entries that can never be persisted and caps quantities at
// MaxQuantity.
func (m Mapping) valid() Mapping {
	out := make(Mapping, len(m))
	for id, q := range m {
		if id > 0 && q > 0 {
			out[id] = min(q, MaxQuantity)
		}
	}
	return out
}

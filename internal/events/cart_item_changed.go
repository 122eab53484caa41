package events

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

const (
	EventTypeCartItemChanged = "CartItemChanged"
	cartItemChangedSchema    = "contracts/events/storefront/CartItemChanged.v1.payload.schema.json"
)

type CartItemChangedPayload struct {
	ProductID  int         `json:"productId"`
	Action     cart.Action `json:"action"`
	Quantity   int         `json:"quantity"`
	CartCount  int         `json:"cartCount"`
	OccurredAt time.Time   `json:"occurredAt"`
}

type CartItemChangedEvent struct {
	EventEnvelope
	Payload CartItemChangedPayload `json:"payload"`
}

// itemChange reports whether c is a per-item change worth publishing.
func itemChange(c cart.Change) bool {
	switch c.Action {
	case cart.ActionAdded, cart.ActionIncremented, cart.ActionDecremented, cart.ActionRemoved, cart.ActionSet:
		return c.ProductID > 0
	default:
		return false
	}
}

func newCartItemChangedEvent(meta EventMeta, seq int64, producer string, c cart.Change, occurredAt time.Time) CartItemChangedEvent {
	return CartItemChangedEvent{
		EventEnvelope: EventEnvelope{
			EventName:     EventTypeCartItemChanged,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: meta.CorrelationID,
			CausationID:   meta.CausationID,
			Producer:      producer,
			PartitionKey:  "product:" + strconv.Itoa(c.ProductID),
			Sequence:      seq,
			OccurredAt:    occurredAt,
			Schema:        cartItemChangedSchema,
		},
		Payload: CartItemChangedPayload{
			ProductID:  c.ProductID,
			Action:     c.Action,
			Quantity:   c.Quantity,
			CartCount:  c.Cart.Count(),
			OccurredAt: occurredAt,
		},
	}
}

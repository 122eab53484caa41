// Package cart owns the visitor's cart: the product id to quantity mapping
// persisted in the "cart" slot, and every mutation of it.
package cart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	SlotName   = "cart"
	DefaultTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidProductID = errors.New("invalid product id")
	ErrInvalidQuantity  = errors.New("invalid quantity")
)

type Action string

const (
	ActionAdded       Action = "added"
	ActionIncremented Action = "incremented"
	ActionDecremented Action = "decremented"
	ActionRemoved     Action = "removed"
	ActionSet         Action = "set"
	ActionReplaced    Action = "replaced"
	ActionUnchanged   Action = "unchanged"
)

// Change describes one completed write. Quantity is the product's quantity
// after the write, 0 when it left the cart.
type Change struct {
	ProductID int
	Action    Action
	Quantity  int
	Cart      Mapping
}

type Store struct {
	slot Slot
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger

	mu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

type Option func(*Store)

func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(slot Slot, opts ...Option) *Store {
	s := &Store{
		slot: slot,
		ttl:  DefaultTTL,
		now:  time.Now,
		log:  zerolog.Nop(),
		subs: map[int]func(Change){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted cart. An absent or malformed slot is an empty cart.
func (s *Store) Load() Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Count is the badge number: the sum of all quantities.
func (s *Store) Count() int {
	return s.Load().Count()
}

// Persist replaces the whole slot with m and renews the expiry.
func (s *Store) Persist(m Mapping) error {
	s.mu.Lock()
	m = m.valid()
	err := s.persist(m)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(Change{Action: ActionReplaced, Cart: m.Clone()})
	return nil
}

// Add inserts the product with quantity 1 or increments it.
func (s *Store) Add(id int) (Change, error) {
	return s.mutate(id, func(cur int) (int, Action, error) {
		if cur >= MaxQuantity {
			return cur, ActionUnchanged, quantityError(id, cur, 1)
		}
		return cur + 1, ActionAdded, nil
	})
}

// Increment adds one. A product that is not in the cart is added.
func (s *Store) Increment(id int) (Change, error) {
	return s.ChangeQuantity(id, 1)
}

// Decrement removes one, and removes the product when its quantity would reach 0.
// A product that is not in the cart is left alone.
func (s *Store) Decrement(id int) (Change, error) {
	return s.ChangeQuantity(id, -1)
}

// ChangeQuantity applies delta with removal at or below zero. A delta that
// would take the product past MaxQuantity fails with ErrInvalidQuantity.
func (s *Store) ChangeQuantity(id, delta int) (Change, error) {
	return s.mutate(id, func(cur int) (int, Action, error) {
		switch {
		case delta == 0 || (cur == 0 && delta < 0):
			return cur, ActionUnchanged, nil
		case delta > MaxQuantity-cur:
			return cur, ActionUnchanged, quantityError(id, cur, delta)
		case cur == 0:
			return delta, ActionAdded, nil
		case delta <= -cur:
			return 0, ActionRemoved, nil
		case delta > 0:
			return cur + delta, ActionIncremented, nil
		default:
			return cur + delta, ActionDecremented, nil
		}
	})
}

// SetQuantity sets an explicit quantity. n <= 0 removes the product.
func (s *Store) SetQuantity(id, n int) (Change, error) {
	return s.mutate(id, func(cur int) (int, Action, error) {
		switch {
		case n > MaxQuantity:
			return cur, ActionUnchanged, fmt.Errorf("product %d: quantity %d above %d: %w", id, n, MaxQuantity, ErrInvalidQuantity)
		case n == cur || (n <= 0 && cur == 0):
			return cur, ActionUnchanged, nil
		case n <= 0:
			return 0, ActionRemoved, nil
		default:
			return n, ActionSet, nil
		}
	})
}

func quantityError(id, cur, delta int) error {
	return fmt.Errorf("product %d: %d + %d exceeds %d: %w", id, cur, delta, MaxQuantity, ErrInvalidQuantity)
}

// Subscribe registers fn to run after every write through this store.
// The returned func cancels the subscription.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) mutate(id int, apply func(cur int) (int, Action, error)) (Change, error) {
	if id <= 0 {
		return Change{}, fmt.Errorf("product id %d: %w", id, ErrInvalidProductID)
	}

	s.mu.Lock()
	m := s.load()
	q, action, err := apply(m[id])
	if err != nil {
		s.mu.Unlock()
		return Change{}, err
	}
	if action == ActionUnchanged {
		s.mu.Unlock()
		return Change{ProductID: id, Action: action, Quantity: q, Cart: m}, nil
	}

	if q <= 0 {
		delete(m, id)
		q = 0
	} else {
		m[id] = q
	}
	if err := s.persist(m); err != nil {
		s.mu.Unlock()
		return Change{}, err
	}
	s.mu.Unlock()

	s.log.Debug().
		Int("productId", id).
		Str("action", string(action)).
		Int("quantity", q).
		Int("cartCount", m.Count()).
		Msg("cart updated")

	s.notify(Change{ProductID: id, Action: action, Quantity: q, Cart: m.Clone()})
	return Change{ProductID: id, Action: action, Quantity: q, Cart: m}, nil
}

func (s *Store) load() Mapping {
	v, ok := s.slot.Read()
	if !ok {
		return Mapping{}
	}
	m, err := DecodeValue(v)
	if err != nil {
		s.log.Debug().Err(err).Msg("ignoring malformed cart slot")
		return Mapping{}
	}
	return m
}

func (s *Store) persist(m Mapping) error {
	if err := s.slot.Write(EncodeValue(m), s.now().Add(s.ttl)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

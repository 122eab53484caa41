package cartpage

import (
	"context"
	"errors"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

var ErrLoadInFlight = errors.New("cart page load already in flight")

// Page is the state of one mounted cart page.
type Page struct {
	store *cart.Store
	asm   *Assembler

	mu      sync.Mutex
	loading bool
	snap    Snapshot
}

func NewPage(store *cart.Store, asm *Assembler) *Page {
	return &Page{store: store, asm: asm}
}

// Mount loads the cart and hydrates it. A second Mount while one is running
// returns ErrLoadInFlight. A failed hydration keeps the previous snapshot
// and never touches the stored cart.
func (p *Page) Mount(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return Snapshot{}, ErrLoadInFlight
	}
	p.loading = true
	p.mu.Unlock()

	snap, err := p.asm.Build(ctx, p.store.Load())

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if err != nil {
		return Snapshot{}, err
	}
	p.snap = snap
	return snap, nil
}

func (p *Page) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Change applies delta to a line on the page. The stored cart and the
// snapshot with its subtotal are updated together. Ids that are not on the
// page are ignored.
func (p *Page) Change(id, delta int) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.snap.Has(id) {
		return p.snap, nil
	}

	c, err := p.store.ChangeQuantity(id, delta)
	if err != nil {
		return p.snap, err
	}
	p.snap = join(p.snap.products(), c.Cart)
	return p.snap, nil
}

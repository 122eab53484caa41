package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cartpage"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/feed"
)

// screen serializes output from the input loop, the feed and the badge watcher.
type screen struct {
	mu    sync.Mutex
	out   io.Writer
	vp    *feed.Viewport
	feed  *feed.Feed
	store *cart.Store
	badge int
}

func (s *screen) setBadge(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == s.badge {
		return
	}
	s.badge = n
	fmt.Fprintf(s.out, "[cart %d]\n", n)
}

func (s *screen) message(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, msg)
}

func (s *screen) render(f *feed.Feed) {
	if f == nil {
		return
	}
	items := f.Items()
	inCart := s.store.Load()
	from, to := s.vp.Window()

	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.out, "---- %d-%d of %d  [cart %d]\n", from+1, to, len(items), inCart.Count())
	for i := from; i < to && i < len(items); i++ {
		p := items[i]
		price := cartpage.FormatMoney(p.EffectivePrice())
		if p.Discounted() {
			price += " (was " + cartpage.FormatMoney(p.Price) + ")"
		}
		qty := ""
		if n := inCart[p.ID]; n > 0 {
			qty = fmt.Sprintf("  x%d in cart", n)
		}
		fmt.Fprintf(s.out, "%4d  %-40.40s %s%s\n", p.ID, p.Title, price, qty)
	}
	switch {
	case f.Loading():
		fmt.Fprintln(s.out, "loading...")
	case f.Err() != nil:
		fmt.Fprintln(s.out, "could not load more products")
	case f.Exhausted():
		fmt.Fprintln(s.out, "no more products")
	}
}

func (s *screen) renderCart(snap cartpage.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Empty() {
		fmt.Fprintln(s.out, "your cart is empty, back to the products with j/k")
		return
	}
	for _, l := range snap.Lines {
		fmt.Fprintf(s.out, "%4d  %-40.40s %3d x %s = %s\n",
			l.Product.ID, l.Product.Title, l.Quantity,
			cartpage.FormatMoney(l.UnitPrice()), cartpage.FormatMoney(l.Total()))
	}
	fmt.Fprintf(s.out, "subtotal %s  shipping free  total %s\n",
		cartpage.FormatMoney(snap.Subtotal), cartpage.FormatMoney(snap.Subtotal))
}

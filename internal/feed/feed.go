// Package feed pages through the catalog for a listing view. It keeps the
// products loaded so far and loads the next page when the last one comes
// into view.
package feed

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

// ErrExhausted is returned by Advance once a page came back empty.
var ErrExhausted = errors.New("feed exhausted")

const DefaultPageSize = 10

type Cursor struct {
	Page     int
	PageSize int
}

// Fetcher loads one page of products. catalog.Service satisfies it.
type Fetcher interface {
	Page(ctx context.Context, page, limit int) ([]catalog.Product, error)
}

type Feed struct {
	fetcher  Fetcher
	log      zerolog.Logger
	onUpdate func()

	mu        sync.Mutex
	items     []catalog.Product
	cursor    Cursor
	loading   bool
	exhausted bool
	err       error

	sentinel
}

type Option func(*Feed)

func WithLogger(l zerolog.Logger) Option {
	return func(f *Feed) { f.log = l }
}

// WithOnUpdate registers fn to run whenever loading starts or a fetch completes.
func WithOnUpdate(fn func()) Option {
	return func(f *Feed) { f.onUpdate = fn }
}

func New(fetcher Fetcher, pageSize int, opts ...Option) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	f := &Feed{
		fetcher: fetcher,
		log:     zerolog.Nop(),
		cursor:  Cursor{Page: 1, PageSize: pageSize},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start loads the first page.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	cur := Cursor{Page: 1, PageSize: f.cursor.PageSize}
	f.cursor = cur
	f.mu.Unlock()

	_, err := f.FetchPage(ctx, cur)
	return err
}

// FetchPage loads cur and appends the result. It reports false without
// fetching while another page is loading.
func (f *Feed) FetchPage(ctx context.Context, cur Cursor) (bool, error) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return false, nil
	}
	f.loading = true
	f.err = nil
	f.mu.Unlock()
	f.updated()

	err := f.fetch(ctx, cur)
	return true, err
}

// Advance moves the cursor one page forward and fetches it. It reports false
// while a page is loading, and ErrExhausted once the catalog ran out.
// A failed fetch rolls the cursor back so the next trigger retries the page.
func (f *Feed) Advance(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return false, nil
	}
	if f.exhausted {
		f.mu.Unlock()
		return false, ErrExhausted
	}
	f.cursor.Page++
	cur := f.cursor
	f.loading = true
	f.err = nil
	f.mu.Unlock()
	f.updated()

	err := f.fetch(ctx, cur)
	if err != nil {
		f.mu.Lock()
		if f.cursor == cur {
			f.cursor.Page--
		}
		f.mu.Unlock()
	}
	return true, err
}

func (f *Feed) fetch(ctx context.Context, cur Cursor) error {
	f.log.Debug().Int("page", cur.Page).Int("limit", cur.PageSize).Msg("fetching feed page")

	products, err := f.fetcher.Page(ctx, cur.Page, cur.PageSize)

	f.mu.Lock()
	f.loading = false
	switch {
	case err != nil:
		f.err = err
	case len(products) == 0:
		f.exhausted = true
	default:
		f.items = append(f.items, products...)
	}
	f.mu.Unlock()

	switch {
	case err != nil:
		f.log.Warn().Err(err).Int("page", cur.Page).Msg("feed page failed")
	case len(products) == 0:
		f.log.Info().Int("page", cur.Page).Msg("feed exhausted")
	default:
		f.rebind()
	}

	f.updated()
	return err
}

func (f *Feed) Items() []catalog.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *Feed) Cursor() Cursor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

func (f *Feed) Exhausted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exhausted
}

// Err is the error of the last fetch, nil once a later fetch starts.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Feed) updated() {
	if f.onUpdate != nil {
		f.onUpdate()
	}
}

// Package cartpage builds the cart page: every cart entry hydrated with its
// product record, and the subtotal.
package cartpage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

var ErrHydration = errors.New("cart hydration failed")

const DefaultConcurrency = 8

type ProductSource interface {
	Product(ctx context.Context, id int) (catalog.Product, error)
}

type Assembler struct {
	src         ProductSource
	concurrency int
	log         zerolog.Logger
	tracer      trace.Tracer
}

type Option func(*Assembler)

func WithConcurrency(n int) Option {
	return func(a *Assembler) { a.concurrency = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) { a.log = l }
}

func NewAssembler(src ProductSource, opts ...Option) *Assembler {
	a := &Assembler{
		src:         src,
		concurrency: DefaultConcurrency,
		log:         zerolog.Nop(),
		tracer:      otel.Tracer("storefront/cartpage"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.concurrency < 1 {
		a.concurrency = 1
	}
	return a
}

// Build fetches every product in m concurrently. If any fetch fails the
// whole build fails with ErrHydration and no partial snapshot is returned.
// An empty cart fetches nothing.
func (a *Assembler) Build(ctx context.Context, m cart.Mapping) (Snapshot, error) {
	if len(m) == 0 {
		return join(nil, m), nil
	}

	ctx, span := a.tracer.Start(ctx, "cartpage.Build", trace.WithAttributes(attribute.Int("cart.lines", len(m))))
	defer span.End()

	ids := m.IDs()
	products := make([]catalog.Product, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := a.src.Product(gctx, id)
			if err != nil {
				return fmt.Errorf("product %d: %w", id, err)
			}
			products[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hydration failed")
		a.log.Warn().Err(err).Int("lines", len(ids)).Msg("cart hydration failed")
		return Snapshot{}, fmt.Errorf("%w: %w", ErrHydration, err)
	}

	return join(products, m), nil
}

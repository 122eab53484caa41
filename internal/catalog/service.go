package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Service is the single catalog entry point for every view. Identical requests
// that overlap in time share one upstream call.
type Service struct {
	src   Source
	cache Cache
	log   zerolog.Logger

	group singleflight.Group
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(src Source, opts ...Option) *Service {
	s := &Service{src: src, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Products(ctx context.Context) ([]Product, error) {
	v, err := s.share(ctx, "all", func(ctx context.Context) (any, error) {
		return s.src.ListProducts(ctx)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]Product)), nil
}

func (s *Service) Page(ctx context.Context, page, limit int) ([]Product, error) {
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("page %d limit %d: %w", page, limit, ErrInvalidInput)
	}

	key := "page:" + strconv.Itoa(page) + ":" + strconv.Itoa(limit)
	v, err := s.share(ctx, key, func(ctx context.Context) (any, error) {
		return s.src.ListPage(ctx, page, limit)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]Product)), nil
}

func (s *Service) Product(ctx context.Context, id int) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("product id %d: %w", id, ErrInvalidInput)
	}

	v, err := s.share(ctx, "product:"+strconv.Itoa(id), func(ctx context.Context) (any, error) {
		return s.readThrough(ctx, id)
	})
	if err != nil {
		return Product{}, err
	}
	return v.(Product), nil
}

// Suggested returns the full catalog without the product being viewed.
func (s *Service) Suggested(ctx context.Context, exclude int) ([]Product, error) {
	all, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(p Product) bool { return p.ID == exclude }), nil
}

func (s *Service) readThrough(ctx context.Context, id int) (Product, error) {
	if s.cache != nil {
		p, err := s.cache.GetProduct(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warn().Err(err).Int("productId", id).Msg("product cache read failed")
		}
	}

	p, err := s.src.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, p); err != nil {
			s.log.Warn().Err(err).Int("productId", id).Msg("product cache write failed")
		}
	}
	return p, nil
}

// share runs fn once per key for all concurrent callers. The shared call is
// detached from any single caller's cancellation; each caller still stops
// waiting when its own context is done.
func (s *Service) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.log.Debug().Str("key", key).Msg("catalog request shared")
		}
		return res.Val, res.Err
	}
}

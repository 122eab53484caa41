// Package cache keeps product records in Redis so repeated product lookups
// skip the catalog service.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
)

type Config struct {
	URL          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// New parses the URL, applies timeouts and pings the server.
func (c Config) New(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if c.ReadTimeout > 0 {
		opts.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		opts.WriteTimeout = c.WriteTimeout
	}
	if c.DialTimeout > 0 {
		opts.DialTimeout = c.DialTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type ProductCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewProductCache(rdb redis.Cmdable, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func productKey(id int) string {
	return "catalog:product:" + strconv.Itoa(id)
}

func (c *ProductCache) GetProduct(ctx context.Context, id int) (catalog.Product, error) {
	b, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return catalog.Product{}, catalog.ErrCacheMiss
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("redis get product %d: %w", id, err)
	}

	var p catalog.Product
	if err := json.Unmarshal(b, &p); err != nil {
		// treat a record we cannot read as absent; the next write replaces it
		return catalog.Product{}, catalog.ErrCacheMiss
	}
	return p, nil
}

func (c *ProductCache) SetProduct(ctx context.Context, p catalog.Product) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product %d: %w", p.ID, err)
	}
	if err := c.rdb.Set(ctx, productKey(p.ID), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product %d: %w", p.ID, err)
	}
	return nil
}

var _ catalog.Cache = (*ProductCache)(nil)

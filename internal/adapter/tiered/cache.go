// Package tiered layers the in-process ristretto cache over the shared
// NATS KV bucket so idempotency replays survive restarts and work across
// replicas.
package tiered

import (
	"context"
	"time"

	"github.com/Strob0t/SchoolPay/internal/logger"
	"github.com/Strob0t/SchoolPay/internal/port/cache"
)

// Cache reads L1 before L2 and copies L2 hits into L1. Writes and deletes
// go to both. L2 failures are logged and treated as misses, so a NATS
// outage leaves replay working per instance.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
}

// New returns a Cache; l1Expire bounds how long any entry stays in L1.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		logger.From(ctx).Warn("l2 cache get failed", "key", key, "error", err)
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	_ = c.l1.Set(ctx, key, val, c.l1Expire)
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := ttl
	if c.l1Expire > 0 && (l1TTL <= 0 || c.l1Expire < l1TTL) {
		l1TTL = c.l1Expire
	}
	if err := c.l1.Set(ctx, key, value, l1TTL); err != nil {
		return err
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		logger.From(ctx).Warn("l2 cache set failed", "key", key, "error", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if err := c.l2.Delete(ctx, key); err != nil {
		logger.From(ctx).Warn("l2 cache delete failed", "key", key, "error", err)
	}
	return nil
}

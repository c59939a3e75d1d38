// Package cache declares the byte-oriented key/value store used for
// idempotent webhook replay and for remembering known tenant ids.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values under string keys. A miss is reported as
// ok == false with a nil error; err is reserved for backend failures.
// A ttl <= 0 means the implementation's default expiry.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

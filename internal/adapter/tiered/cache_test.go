package tiered_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Strob0t/SchoolPay/internal/adapter/ristretto"
	"github.com/Strob0t/SchoolPay/internal/adapter/tiered"
)

// memCache is a simple in-memory cache for testing.
type memCache struct {
	data map[string][]byte
	ttls map[string]time.Duration
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func TestTiered_L1Hit(t *testing.T) {
	l1 := newMemCache()
	l2 := newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)

	l1.data["key1"] = []byte("val1")

	val, found, err := c.Get(context.Background(), "key1")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != "val1" {
		t.Fatalf("expected L1 hit val1, got found=%v val=%s", found, val)
	}
}

func TestTiered_L2HitWithBackfill(t *testing.T) {
	l1 := newMemCache()
	l2 := newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)

	l2.data["key2"] = []byte("val2")

	val, found, err := c.Get(context.Background(), "key2")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != "val2" {
		t.Fatalf("expected L2 hit val2, got found=%v val=%s", found, val)
	}
	if string(l1.data["key2"]) != "val2" {
		t.Fatal("expected L1 backfill")
	}
	if l1.ttls["key2"] != 5*time.Minute {
		t.Fatalf("backfill ttl = %v, want 5m", l1.ttls["key2"])
	}
}

func TestTiered_Miss(t *testing.T) {
	c := tiered.New(newMemCache(), newMemCache(), 5*time.Minute)

	_, found, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected miss")
	}
}

func TestTiered_SetBothCapsL1TTL(t *testing.T) {
	l1 := newMemCache()
	l2 := newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)

	if err := c.Set(context.Background(), "key3", []byte("val3"), 24*time.Hour); err != nil {
		t.Fatal(err)
	}
	if l1.ttls["key3"] != 5*time.Minute {
		t.Fatalf("L1 ttl = %v, want 5m", l1.ttls["key3"])
	}
	if l2.ttls["key3"] != 24*time.Hour {
		t.Fatalf("L2 ttl = %v, want 24h", l2.ttls["key3"])
	}
}

func TestTiered_ShortTTLKeptInL1(t *testing.T) {
	l1 := newMemCache()
	c := tiered.New(l1, newMemCache(), 5*time.Minute)

	_ = c.Set(context.Background(), "k", []byte("v"), time.Second)
	if l1.ttls["k"] != time.Second {
		t.Fatalf("L1 ttl = %v, want 1s", l1.ttls["k"])
	}
}

func TestTiered_DeleteBoth(t *testing.T) {
	l1 := newMemCache()
	l2 := newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)

	l1.data["key4"] = []byte("val4")
	l2.data["key4"] = []byte("val4")

	if err := c.Delete(context.Background(), "key4"); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["key4"]; ok {
		t.Fatal("expected key4 deleted from L1")
	}
	if _, ok := l2.data["key4"]; ok {
		t.Fatal("expected key4 deleted from L2")
	}
}

func TestTiered_L2OutageDegradesToL1(t *testing.T) {
	l1 := newMemCache()
	l2 := newMemCache()
	l2.err = errors.New("nats: connection closed")
	c := tiered.New(l1, l2, 5*time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set should survive L2 failure: %v", err)
	}
	val, found, err := c.Get(ctx, "k")
	if err != nil || !found || string(val) != "v" {
		t.Fatalf("expected L1 hit, got found=%v val=%s err=%v", found, val, err)
	}
	if _, found, err := c.Get(ctx, "other"); err != nil || found {
		t.Fatalf("L2 error should read as a miss, got found=%v err=%v", found, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete should survive L2 failure: %v", err)
	}
}

func TestTiered_OverRistretto(t *testing.T) {
	l1, err := ristretto.New(1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(l1.Close)
	c := tiered.New(l1, newMemCache(), time.Minute)
	ctx := context.Background()

	_ = c.Set(ctx, "ow-key", []byte("v1"), time.Minute)
	_ = c.Set(ctx, "ow-key", []byte("v2"), time.Minute)
	val, found, err := c.Get(ctx, "ow-key")
	if err != nil || !found || string(val) != "v2" {
		t.Fatalf("expected v2 after overwrite, got found=%v val=%s err=%v", found, val, err)
	}
	if err := c.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("Delete of nonexistent key should not error: %v", err)
	}
}

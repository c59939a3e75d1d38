package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/SchoolPay/internal/adapter/ristretto"
)

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNewRejectsZeroSize(t *testing.T) {
	if _, err := ristretto.New(0); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestSetGetDelete(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "idem:abc", []byte(`{"status":200}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	val, found, err := c.Get(ctx, "idem:abc")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(val) != `{"status":200}` {
		t.Fatalf("expected stored value, got found=%v val=%s", found, val)
	}

	if err := c.Delete(ctx, "idem:abc"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "idem:abc"); found {
		t.Fatal("expected miss after Delete")
	}
}

func TestEmptyValueIsStored(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "tenant:t1", []byte{}, 0)
	if _, found, _ := c.Get(ctx, "tenant:t1"); !found {
		t.Fatal("empty values should still be cached")
	}
}

func TestGetMiss(t *testing.T) {
	c := newCache(t)
	if _, found, err := c.Get(context.Background(), "nope"); err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}
}

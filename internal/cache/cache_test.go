package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryExpiresAfterTTL(t *testing.T) {
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	c := NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, _ := c.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Fatalf("expected hit, got %q ok=%v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryDeletePrefix(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_ = c.Set(ctx, "avail:t1:u1:free", []byte("a"), time.Minute)
	_ = c.Set(ctx, "avail:t1:u2:free", []byte("b"), time.Minute)
	_ = c.Set(ctx, "avail:t10:u1:free", []byte("c"), time.Minute)

	if err := c.DeletePrefix(ctx, "avail:t1:u1:"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "avail:t1:u1:free"); ok {
		t.Fatalf("expected u1 entry to be evicted")
	}
	if _, ok, _ := c.Get(ctx, "avail:t1:u2:free"); !ok {
		t.Fatalf("expected u2 entry to survive")
	}

	_ = c.DeletePrefix(ctx, "avail:t1:")
	if c.Len() != 1 {
		t.Fatalf("expected only the t10 entry to remain, got %d", c.Len())
	}
}

func TestMemoryZeroTTLIsNotStored(t *testing.T) {
	c := NewMemory()
	_ = c.Set(context.Background(), "k", []byte("v"), 0)
	if c.Len() != 0 {
		t.Fatalf("expected nothing stored")
	}
}

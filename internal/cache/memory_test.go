package cache

import (
	"context"
	"testing"
	"time"
)

// fakeClock позволяет управлять временем в тестах TTL.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryCache_SetGet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory(clock)
	ctx := context.Background()

	if err := c.Set(ctx, "key-1", []byte("value-1"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	value, ok, err := c.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(value) != "value-1" {
		t.Fatalf("expected value-1, got %s", value)
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemory(nil)

	_, ok, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory(clock)
	ctx := context.Background()

	if err := c.Set(ctx, "key-1", []byte("value-1"), 5*time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	clock.Advance(4 * time.Minute)
	if _, ok, _ := c.Get(ctx, "key-1"); !ok {
		t.Fatal("expected hit before TTL expiry")
	}

	clock.Advance(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, "key-1"); ok {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemory(clock)
	ctx := context.Background()

	if err := c.Set(ctx, "key-1", []byte("value-1"), 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	clock.Advance(time.Hour * 24 * 365)
	if _, ok, _ := c.Get(ctx, "key-1"); !ok {
		t.Fatal("entry without TTL should not expire")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemory(nil)
	ctx := context.Background()

	_ = c.Set(ctx, "key-1", []byte("a"), 0)
	_ = c.Set(ctx, "key-2", []byte("b"), 0)

	if err := c.Delete(ctx, "key-1", "key-2", "missing"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "key-1"); ok {
		t.Fatal("key-1 should be deleted")
	}
	if _, ok, _ := c.Get(ctx, "key-2"); ok {
		t.Fatal("key-2 should be deleted")
	}
}

func TestMemoryCache_ValueIsolated(t *testing.T) {
	c := NewMemory(nil)
	ctx := context.Background()

	original := []byte("value")
	_ = c.Set(ctx, "key-1", original, 0)
	original[0] = 'X'

	value, ok, _ := c.Get(ctx, "key-1")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(value) != "value" {
		t.Fatalf("cached value should be a copy, got %s", value)
	}

	value[0] = 'Y'
	again, _, _ := c.Get(ctx, "key-1")
	if string(again) != "value" {
		t.Fatalf("returned value should be a copy, got %s", again)
	}
}

package cache

import (
	"testing"
	"time"
)

func TestCache_SetGetExpire(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", 42)

	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("expected hit with 42, got %v %v", v, ok)
	}

	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should have been removed")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	c := New(time.Minute)

	c.Set("rfps:list:a", 1)
	c.Set("rfps:list:b", 2)
	c.Set("templates:software", 3)

	if n := c.DeletePrefix("rfps:list:"); n != 2 {
		t.Fatalf("expected 2 deletions, got %d", n)
	}

	if _, ok := c.Get("templates:software"); !ok {
		t.Fatalf("unrelated key must survive")
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	c := New(0)
	if c.ttl != 5*time.Second {
		t.Fatalf("expected default ttl, got %s", c.ttl)
	}
}

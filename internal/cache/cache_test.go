// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Unit tests for TTL cache.

package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := New[string]()
	c.Set("k", "v", time.Second)
	v, ok := c.Get("k")
	if !ok || v != "v" {
		t.Fatalf("expected v, got %v", v)
	}
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New[int]()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.Set("k", 1, time.Minute)
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry")
	}
}

func TestGetOrLoad(t *testing.T) {
	c := New[int]()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}
	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad(context.Background(), "k", time.Minute, load)
		if err != nil || v != 42 {
			t.Fatalf("GetOrLoad = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}

	boom := errors.New("boom")
	if _, err := c.GetOrLoad(context.Background(), "bad", time.Minute, func(context.Context) (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatalf("errors must not be cached")
	}
}

// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package cache

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)

	c.Set("inventory:pod-1", 7)
	value, ok := c.Get("inventory:pod-1")
	if !ok {
		t.Fatal("expected inventory:pod-1 to be cached")
	}
	if value != 7 {
		t.Errorf("cached value = %v, want 7", value)
	}

	if _, ok := c.Get("inventory:pod-2"); ok {
		t.Error("unset key should miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)

	c.SetWithTTL("k", "v", 50*time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("entry should be live immediately after set")
	}

	time.Sleep(100 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}

	// The lazy expiry on Get counts as an eviction.
	if evictions := c.GetStats().Evictions; evictions != 1 {
		t.Errorf("evictions = %d, want 1", evictions)
	}
}

func TestCacheDelete(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)

	c.Set("k", "v")
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("deleted key should miss")
	}

	// Deleting an absent key must not panic or error.
	c.Delete("never-set")
}

func TestCacheClear(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if _, ok := c.Get("a"); ok {
		t.Error("cleared cache should miss")
	}
	if keys := c.GetStats().TotalKeys; keys != 0 {
		t.Errorf("TotalKeys after Clear = %d, want 0", keys)
	}
}

func TestCacheInvalidatePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		pattern     string
		wantRemoved int
		wantGone    []string
		wantKept    []string
	}{
		{
			name:        "prefix wildcard",
			pattern:     "roi:acme:*",
			wantRemoved: 2,
			wantGone:    []string{"roi:acme:c1", "roi:acme:c2"},
			wantKept:    []string{"roi:other:c1", "inventory:acme"},
		},
		{
			name:        "exact match",
			pattern:     "inventory:acme",
			wantRemoved: 1,
			wantGone:    []string{"inventory:acme"},
			wantKept:    []string{"roi:acme:c1"},
		},
		{
			name:        "no match",
			pattern:     "match:*",
			wantRemoved: 0,
			wantKept:    []string{"roi:acme:c1", "roi:acme:c2", "roi:other:c1", "inventory:acme"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := New(time.Minute)
			for _, key := range []string{"roi:acme:c1", "roi:acme:c2", "roi:other:c1", "inventory:acme"} {
				c.Set(key, true)
			}

			if removed := c.InvalidatePattern(tt.pattern); removed != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", removed, tt.wantRemoved)
			}
			for _, key := range tt.wantGone {
				if _, ok := c.Get(key); ok {
					t.Errorf("key %q should have been invalidated", key)
				}
			}
			for _, key := range tt.wantKept {
				if _, ok := c.Get(key); !ok {
					t.Errorf("key %q should have survived", key)
				}
			}
		})
	}
}

func TestCacheStatsAndHitRate(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)

	if rate := c.HitRate(); rate != 0.0 {
		t.Errorf("hit rate before any lookup = %f, want 0", rate)
	}

	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	stats := c.GetStats()
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
	if stats.TotalKeys != 1 {
		t.Errorf("total keys = %d, want 1", stats.TotalKeys)
	}

	want := 100.0 * 2.0 / 3.0
	if rate := c.HitRate(); rate < want-0.01 || rate > want+0.01 {
		t.Errorf("hit rate = %f, want ~%f", rate, want)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, n)
				c.Get(key)
				if j%25 == 0 {
					c.InvalidatePattern("k1*")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	type params struct {
		TenantID  string
		PodcastID string
	}

	a := GenerateKey("episodes", params{"t1", "p1"})
	b := GenerateKey("episodes", params{"t1", "p1"})
	other := GenerateKey("episodes", params{"t1", "p2"})

	if a != b {
		t.Error("same params should produce the same key")
	}
	if a == other {
		t.Error("different params should produce different keys")
	}
	if !strings.HasPrefix(a, "episodes:") {
		t.Errorf("key %q should carry the method prefix", a)
	}
}

func TestGenerateKeyUnmarshalableParams(t *testing.T) {
	t.Parallel()

	// Channels cannot be marshaled; the fallback key must still be stable
	// enough to carry the method prefix.
	key := GenerateKey("bad", make(chan int))
	if !strings.HasPrefix(key, "bad:") {
		t.Errorf("fallback key %q should carry the method prefix", key)
	}
}

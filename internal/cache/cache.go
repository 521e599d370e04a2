// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// cleanupInterval is how often the in-memory cache sweeps expired entries.
// Expired entries are also dropped lazily on Get, so the sweep only bounds
// memory held by keys nobody reads again.
const cleanupInterval = 5 * time.Minute

// Entry is one cached value with its expiry.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Stats tracks cache performance counters. The zero value is ready to use.
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

func (s *Stats) hit() {
	s.mu.Lock()
	s.Hits++
	s.mu.Unlock()
}

func (s *Stats) miss() {
	s.mu.Lock()
	s.Misses++
	s.mu.Unlock()
}

func (s *Stats) evict(n int64) {
	s.mu.Lock()
	s.Evictions += n
	s.mu.Unlock()
}

func (s *Stats) setKeys(n int64) {
	s.mu.Lock()
	s.TotalKeys = n
	s.mu.Unlock()
}

func (s *Stats) addKeys(n int64) {
	s.mu.Lock()
	s.TotalKeys += n
	s.mu.Unlock()
}

// snapshot returns a lock-free copy for callers.
func (s *Stats) snapshot() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Hits:        s.Hits,
		Misses:      s.Misses,
		Evictions:   s.Evictions,
		TotalKeys:   s.TotalKeys,
		LastCleanup: s.LastCleanup,
	}
}

// rate returns hits as a percentage of all lookups, 0 when nothing has been
// looked up yet.
func (s *Stats) rate() float64 {
	snap := s.snapshot()
	total := snap.Hits + snap.Misses
	if total == 0 {
		return 0.0
	}
	return float64(snap.Hits) / float64(total) * 100.0
}

// Cache is a thread-safe in-memory TTL cache. The matchmaking scorer uses
// it to hold a podcast's episode inventory across a tenant-wide fanout,
// where the same podcast is re-read once per advertiser it is paired
// against; cmd/server falls back to it when the persistent Badger cache
// cannot be opened.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	stats   Stats
}

// New creates a cache whose entries expire after ttl. A background sweep
// removes expired entries every cleanupInterval for the cache's lifetime.
func New(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		stats:   Stats{LastCleanup: time.Now()},
	}
	go c.cleanupLoop()
	return c
}

// Get returns the value stored under key, or (nil, false) when the key is
// absent or its entry has expired. An expired entry is removed on the spot
// and counted as both a miss and an eviction.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		c.stats.miss()
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		c.stats.miss()
		c.stats.evict(1)
		return nil, false
	}

	c.stats.hit()
	return entry.Data, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL, overwriting any
// existing entry.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = Entry{Data: value, ExpiresAt: time.Now().Add(ttl)}
	keys := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.setKeys(keys)
}

// Delete removes key from the cache. Safe to call for absent keys.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	c.stats.evict(1)
}

// Clear drops every entry in one map swap.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	c.stats.evict(evicted)
	c.stats.setKeys(0)
}

// InvalidatePattern removes every entry whose key matches pattern, where a
// trailing "*" is a prefix wildcard (e.g. "roi:acme:*" clears all ROI
// results cached for tenant "acme"). Without the wildcard the pattern is
// matched exactly, equivalent to Delete. Returns the number of entries
// removed.
func (c *Cache) InvalidatePattern(pattern string) int {
	prefix, wildcard := strings.CutSuffix(pattern, "*")

	c.mu.Lock()
	var removed int64
	for key := range c.entries {
		match := key == pattern
		if wildcard {
			match = strings.HasPrefix(key, prefix)
		}
		if match {
			delete(c.entries, key)
			removed++
		}
	}
	keys := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.evict(removed)
	c.stats.setKeys(keys)
	return int(removed)
}

// GetStats returns a snapshot of the cache's performance counters.
func (c *Cache) GetStats() Stats {
	return c.stats.snapshot()
}

// HitRate returns the cache hit rate as a percentage.
func (c *Cache) HitRate() float64 {
	return c.stats.rate()
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.cleanup()
	}
}

func (c *Cache) cleanup() {
	now := time.Now()

	c.mu.Lock()
	var evicted int64
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	keys := int64(len(c.entries))
	c.mu.Unlock()

	c.stats.mu.Lock()
	c.stats.Evictions += evicted
	c.stats.TotalKeys = keys
	c.stats.LastCleanup = now
	c.stats.mu.Unlock()
}

// GenerateKey builds a cache key from a method name and its parameters,
// hashing the JSON form of the parameters so arbitrarily large argument
// structs still produce short stable keys.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}

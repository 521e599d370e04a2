// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

/*
Package cache provides thread-safe in-memory caching with TTL support, plus
a generic min-heap used for time-ordered scheduling structures elsewhere in
the module.

# Overview

The cache provides:
  - Thread-safe concurrent access (sync.RWMutex)
  - Time-to-live (TTL) expiration for automatic cleanup
  - Pattern-based invalidation for grouped keys (e.g. "roi:tenant-a:*")
  - Simple key-value storage with any value type (interface{})
  - Lazy expiration checking (on Get operations) plus a periodic sweep

# Usage

	c := cache.New(5 * time.Minute)
	c.Set("roi:acme:campaign-42:attributed", metrics)
	if v, ok := c.Get("roi:acme:campaign-42:attributed"); ok {
	    metrics := v.(roi.Metrics)
	}
	c.InvalidatePattern("roi:acme:*")

# Cache Key Conventions

	roi:<tenant>:<campaign>:<mode>     // ROI calculation results
	match:<tenant>:<advertiser>        // matchmaking score lookups
	metric:<tenant>:<podcast>:<day>    // listener metric rollups

# Thread Safety

All cache methods are thread-safe using sync.RWMutex. Get acquires a read
lock; Set, Delete, Clear and InvalidatePattern acquire a write lock.
*/
package cache

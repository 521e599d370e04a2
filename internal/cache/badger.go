// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package cache

import (
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// BadgerCache is a Badger-backed implementation of Cacher, persisting
// entries across restarts: one key-value namespace per logical cache,
// TTL expiry delegated to Badger's own entry TTL rather than
// reimplemented, prefix iteration for pattern invalidation.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration

	stats Stats
}

// NewBadger opens (or creates) a Badger database at path as a persistent
// TTL cache. An empty path opens an in-memory Badger instance, useful for
// tests that want BadgerCache's exact semantics without a file on disk.
func NewBadger(path string, defaultTTL time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerCache{db: db, ttl: defaultTTL, stats: Stats{LastCleanup: time.Now()}}, nil
}

// Close releases the underlying Badger database.
func (b *BadgerCache) Close() error {
	return b.db.Close()
}

// Get retrieves and JSON-decodes a value from the cache. The returned
// value is whatever encoding/json-shaped type the caller marshaled in
// (typically a map[string]interface{} after the round trip, since Badger
// entries are stored as bytes, not live Go values).
func (b *BadgerCache) Get(key string) (interface{}, bool) {
	var out interface{}
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if err != nil {
		b.stats.miss()
		return nil, false
	}
	b.stats.hit()
	return out, true
}

// Set stores value under key with the cache's default TTL.
func (b *BadgerCache) Set(key string, value interface{}) {
	b.SetWithTTL(key, value, b.ttl)
}

// SetWithTTL stores value under key with a custom TTL. ttl<=0 stores the
// entry without expiry.
func (b *BadgerCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = b.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	b.stats.addKeys(1)
}

// Delete removes key from the cache.
func (b *BadgerCache) Delete(key string) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	b.stats.evict(1)
}

// InvalidatePattern removes every key matching pattern, where a trailing
// "*" is a prefix wildcard, matching the in-memory Cache's semantics.
func (b *BadgerCache) InvalidatePattern(pattern string) int {
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	if !wildcard {
		prefix = pattern
	}

	var keys [][]byte
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		if wildcard {
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				keys = append(keys, append([]byte(nil), it.Item().Key()...))
			}
			return nil
		}
		it.Seek([]byte(prefix))
		if it.ValidForPrefix([]byte(prefix)) && string(it.Item().Key()) == prefix {
			keys = append(keys, []byte(prefix))
		}
		return nil
	})

	if len(keys) == 0 {
		return 0
	}
	_ = b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})

	b.stats.evict(int64(len(keys)))
	return len(keys)
}

// Clear drops every entry from the cache.
func (b *BadgerCache) Clear() {
	_ = b.db.DropAll()
	b.stats.setKeys(0)
}

// GetStats returns a snapshot of cache performance counters.
func (b *BadgerCache) GetStats() Stats {
	return b.stats.snapshot()
}

// HitRate returns the cache hit rate as a percentage.
func (b *BadgerCache) HitRate() float64 {
	return b.stats.rate()
}

var _ Cacher = (*BadgerCache)(nil)

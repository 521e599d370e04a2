// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package cache

import (
	"container/heap"
	"sync"
	"time"
)

// HeapEntry is one element of a MinHeap: a keyed value ordered by timestamp.
type HeapEntry[T any] struct {
	Key       string
	Value     T
	Timestamp time.Time
	index     int
}

// entryHeap adapts a slice of entries to container/heap.Interface. All
// methods assume the owning MinHeap's lock is held.
type entryHeap[T any] []*HeapEntry[T]

func (h entryHeap[T]) Len() int { return len(h) }

func (h entryHeap[T]) Less(i, j int) bool { return h[i].Timestamp.Before(h[j].Timestamp) }

func (h entryHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap[T]) Push(x any) {
	e := x.(*HeapEntry[T])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// MinHeap is a concurrency-safe min-heap ordered by timestamp, with O(1)
// lookup by key through a parallel map. The scheduler uses it as its
// priority queue (the timestamp doubles as an encoded priority+sequence
// key), and the ingestion DLQ uses it to evict the oldest entry at capacity
// and to drain entries whose retry time has come.
type MinHeap[T any] struct {
	mu     sync.RWMutex
	items  entryHeap[T]
	byKey  map[string]*HeapEntry[T]
	maxLen int // 0 = unbounded
}

// NewMinHeap creates a min-heap holding at most maxLen entries; 0 means
// unbounded.
func NewMinHeap[T any](maxLen int) *MinHeap[T] {
	return &MinHeap[T]{
		byKey:  make(map[string]*HeapEntry[T]),
		maxLen: maxLen,
	}
}

// Push inserts an entry, or updates value and timestamp in place when the
// key is already present. When the heap is bounded and over capacity after
// the insert, the oldest entry is evicted and returned; otherwise Push
// returns nil.
func (h *MinHeap[T]) Push(key string, value T, timestamp time.Time) *HeapEntry[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.byKey[key]; ok {
		existing.Value = value
		existing.Timestamp = timestamp
		heap.Fix(&h.items, existing.index)
		return nil
	}

	entry := &HeapEntry[T]{Key: key, Value: value, Timestamp: timestamp}
	heap.Push(&h.items, entry)
	h.byKey[key] = entry

	if h.maxLen > 0 && len(h.items) > h.maxLen {
		return h.popLocked()
	}
	return nil
}

// Pop removes and returns the entry with the smallest timestamp, or nil
// when the heap is empty.
func (h *MinHeap[T]) Pop() *HeapEntry[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.popLocked()
}

// Peek returns the entry with the smallest timestamp without removing it,
// or nil when the heap is empty.
func (h *MinHeap[T]) Peek() *HeapEntry[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

// Get returns the entry stored under key, or nil.
func (h *MinHeap[T]) Get(key string) *HeapEntry[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.byKey[key]
}

// Remove removes and returns the entry stored under key, or nil.
func (h *MinHeap[T]) Remove(key string) *HeapEntry[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.byKey[key]
	if !ok {
		return nil
	}
	heap.Remove(&h.items, entry.index)
	delete(h.byKey, key)
	return entry
}

// PopBefore removes and returns, oldest first, every entry with a timestamp
// before t.
func (h *MinHeap[T]) PopBefore(t time.Time) []*HeapEntry[T] {
	h.mu.Lock()
	defer h.mu.Unlock()

	var drained []*HeapEntry[T]
	for len(h.items) > 0 && h.items[0].Timestamp.Before(t) {
		drained = append(drained, h.popLocked())
	}
	return drained
}

// All returns a snapshot of every entry, in no particular order.
func (h *MinHeap[T]) All() []*HeapEntry[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := make([]*HeapEntry[T], len(h.items))
	copy(entries, h.items)
	return entries
}

// Len returns the number of entries in the heap.
func (h *MinHeap[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

func (h *MinHeap[T]) popLocked() *HeapEntry[T] {
	if len(h.items) == 0 {
		return nil
	}
	entry := heap.Pop(&h.items).(*HeapEntry[T])
	delete(h.byKey, entry.Key)
	return entry
}

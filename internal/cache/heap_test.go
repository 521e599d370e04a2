// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func ts(offsetSeconds int) time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(offsetSeconds) * time.Second)
}

func TestMinHeapPopOrder(t *testing.T) {
	t.Parallel()

	h := NewMinHeap[string](0)
	h.Push("c", "third", ts(30))
	h.Push("a", "first", ts(10))
	h.Push("b", "second", ts(20))

	for _, want := range []string{"a", "b", "c"} {
		entry := h.Pop()
		if entry == nil || entry.Key != want {
			t.Fatalf("Pop = %v, want key %q", entry, want)
		}
	}
	if h.Pop() != nil {
		t.Error("Pop on empty heap should return nil")
	}
}

func TestMinHeapPushUpdatesExisting(t *testing.T) {
	t.Parallel()

	h := NewMinHeap[int](0)
	h.Push("x", 1, ts(10))
	h.Push("y", 2, ts(20))

	// Re-pushing x with a later timestamp reorders it behind y.
	if evicted := h.Push("x", 3, ts(30)); evicted != nil {
		t.Errorf("update-in-place should not evict, got %v", evicted)
	}
	if h.Len() != 2 {
		t.Fatalf("Len = %d, want 2", h.Len())
	}

	first := h.Pop()
	if first.Key != "y" {
		t.Errorf("first popped = %q, want y", first.Key)
	}
	second := h.Pop()
	if second.Key != "x" || second.Value != 3 {
		t.Errorf("second popped = (%q, %d), want (x, 3)", second.Key, second.Value)
	}
}

func TestMinHeapCapacityEvictsOldest(t *testing.T) {
	t.Parallel()

	h := NewMinHeap[string](2)
	h.Push("old", "o", ts(10))
	h.Push("mid", "m", ts(20))

	evicted := h.Push("new", "n", ts(30))
	if evicted == nil || evicted.Key != "old" {
		t.Fatalf("evicted = %v, want key old", evicted)
	}
	if h.Len() != 2 {
		t.Errorf("Len = %d, want 2", h.Len())
	}
	if h.Get("old") != nil {
		t.Error("evicted key should no longer resolve")
	}
}

func TestMinHeapGetAndRemove(t *testing.T) {
	t.Parallel()

	h := NewMinHeap[string](0)
	h.Push("a", "payload", ts(10))
	h.Push("b", "other", ts(20))

	if entry := h.Get("a"); entry == nil || entry.Value != "payload" {
		t.Errorf("Get(a) = %v, want payload", entry)
	}
	if h.Get("zzz") != nil {
		t.Error("Get on absent key should return nil")
	}

	removed := h.Remove("a")
	if removed == nil || removed.Key != "a" {
		t.Fatalf("Remove(a) = %v, want entry a", removed)
	}
	if h.Remove("a") != nil {
		t.Error("second Remove should return nil")
	}
	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}

	// The heap must stay ordered after an interior removal.
	if entry := h.Pop(); entry.Key != "b" {
		t.Errorf("Pop after Remove = %q, want b", entry.Key)
	}
}

func TestMinHeapPeekDoesNotRemove(t *testing.T) {
	t.Parallel()

	h := NewMinHeap[int](0)
	if h.Peek() != nil {
		t.Error("Peek on empty heap should return nil")
	}

	h.Push("a", 1, ts(10))
	if entry := h.Peek(); entry == nil || entry.Key != "a" {
		t.Errorf("Peek = %v, want entry a", entry)
	}
	if h.Len() != 1 {
		t.Errorf("Peek must not remove; Len = %d, want 1", h.Len())
	}
}

func TestMinHeapPopBefore(t *testing.T) {
	t.Parallel()

	h := NewMinHeap[string](0)
	h.Push("due1", "", ts(10))
	h.Push("due2", "", ts(20))
	h.Push("later", "", ts(40))

	drained := h.PopBefore(ts(30))
	if len(drained) != 2 {
		t.Fatalf("drained %d entries, want 2", len(drained))
	}
	if drained[0].Key != "due1" || drained[1].Key != "due2" {
		t.Errorf("drain order = [%s %s], want [due1 due2]", drained[0].Key, drained[1].Key)
	}
	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}

	if extra := h.PopBefore(ts(30)); extra != nil {
		t.Errorf("second PopBefore should drain nothing, got %d", len(extra))
	}
}

func TestMinHeapAll(t *testing.T) {
	t.Parallel()

	h := NewMinHeap[int](0)
	for i := 0; i < 5; i++ {
		h.Push(fmt.Sprintf("k%d", i), i, ts(i))
	}

	all := h.All()
	if len(all) != 5 {
		t.Fatalf("All returned %d entries, want 5", len(all))
	}
	seen := make(map[string]bool, len(all))
	for _, entry := range all {
		seen[entry.Key] = true
	}
	for i := 0; i < 5; i++ {
		if !seen[fmt.Sprintf("k%d", i)] {
			t.Errorf("All is missing k%d", i)
		}
	}
}

func TestMinHeapConcurrentUse(t *testing.T) {
	t.Parallel()

	h := NewMinHeap[int](64)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d-%d", n, j%20)
				h.Push(key, j, ts(j))
				switch j % 4 {
				case 0:
					h.Pop()
				case 1:
					h.Get(key)
				case 2:
					h.Remove(key)
				default:
					h.PopBefore(ts(j / 2))
				}
			}
		}(i)
	}
	wg.Wait()

	// Map and heap must agree after the dust settles.
	if got, want := len(h.All()), h.Len(); got != want {
		t.Errorf("All len = %d, Len = %d; must agree", got, want)
	}
}

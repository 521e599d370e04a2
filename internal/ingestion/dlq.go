// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package ingestion implements the attribution ingestion edge:
// a NATS JetStream publish path guarded by a circuit breaker, with a
// Dead Letter Queue fallback so a broken broker never blocks ingestion,
// and a background forwarder that drains the DLQ once the breaker
// recovers.
package ingestion

import (
	"sync"
	"time"

	"github.com/tomtom215/sponsorscope/internal/cache"
	"github.com/tomtom215/sponsorscope/internal/metrics"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// DLQEntry is a failed attribution event awaiting redelivery.
type DLQEntry struct {
	Event        models.AttributionEvent
	OriginalErr  string
	RetryCount   int
	FirstFailure time.Time
	NextRetry    time.Time
}

// DLQConfig configures the Dead Letter Queue.
type DLQConfig struct {
	MaxEntries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RetentionTime  time.Duration
}

// DefaultDLQConfig returns production defaults.
func DefaultDLQConfig() DLQConfig {
	return DLQConfig{
		MaxEntries:     10000,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
		RetentionTime:  7 * 24 * time.Hour,
	}
}

// DLQ is an in-memory Dead Letter Queue for attribution events the
// publish path could not deliver. Ordered by FirstFailure via MinHeap for
// O(log n) eviction at capacity.
type DLQ struct {
	cfg     DLQConfig
	mu      sync.Mutex
	entries *cache.MinHeap[*DLQEntry]
}

// NewDLQ constructs a DLQ with cfg.
func NewDLQ(cfg DLQConfig) *DLQ {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 10000
	}
	return &DLQ{cfg: cfg, entries: cache.NewMinHeap[*DLQEntry](cfg.MaxEntries)}
}

// Add enqueues event after a failed publish attempt.
func (d *DLQ) Add(event models.AttributionEvent, cause error) {
	now := time.Now()
	entry := &DLQEntry{
		Event:        event,
		OriginalErr:  cause.Error(),
		FirstFailure: now,
		NextRetry:    now.Add(d.cfg.InitialBackoff),
	}

	d.mu.Lock()
	evicted := d.entries.Push(event.EventID, entry, now)
	d.mu.Unlock()

	if evicted != nil {
		metrics.RecordDLQDrain()
	}
	metrics.RecordDLQEntry()
	d.updateGauges()
}

// PendingRetries returns entries whose backoff has elapsed.
func (d *DLQ) PendingRetries() []*DLQEntry {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	var pending []*DLQEntry
	for _, e := range d.entries.All() {
		if !e.Value.NextRetry.After(now) {
			pending = append(pending, e.Value)
		}
	}
	return pending
}

// MarkRetried either removes the entry (on success) or reschedules it
// with exponential backoff (on failure).
func (d *DLQ) MarkRetried(eventID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err == nil {
		d.entries.Remove(eventID)
		metrics.RecordDLQDrain()
		d.updateGaugesLocked()
		return
	}

	entry := d.entries.Get(eventID)
	if entry == nil {
		return
	}
	entry.Value.RetryCount++
	entry.Value.OriginalErr = err.Error()
	backoff := d.cfg.InitialBackoff << uint(entry.Value.RetryCount)
	if backoff > d.cfg.MaxBackoff || backoff <= 0 {
		backoff = d.cfg.MaxBackoff
	}
	entry.Value.NextRetry = time.Now().Add(backoff)
}

// Cleanup evicts entries older than cfg.RetentionTime. Returns the count
// removed.
func (d *DLQ) Cleanup() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := d.entries.PopBefore(time.Now().Add(-d.cfg.RetentionTime))
	d.updateGaugesLocked()
	return len(removed)
}

// Len returns the current entry count.
func (d *DLQ) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.Len()
}

func (d *DLQ) updateGauges() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updateGaugesLocked()
}

func (d *DLQ) updateGaugesLocked() {
	oldest := 0.0
	all := d.entries.All()
	for _, e := range all {
		age := time.Since(e.Value.FirstFailure).Seconds()
		if age > oldest {
			oldest = age
		}
	}
	metrics.UpdateDLQGauges(int64(len(all)), oldest)
}

// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/sponsorscope/internal/models"
)

func TestDLQAddAndPendingRetries(t *testing.T) {
	cfg := DefaultDLQConfig()
	cfg.InitialBackoff = 0
	dlq := NewDLQ(cfg)

	event := models.AttributionEvent{EventID: "evt-1", TenantID: "tenant-1"}
	dlq.Add(event, errors.New("publish failed"))

	if dlq.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", dlq.Len())
	}

	pending := dlq.PendingRetries()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending retry, got %d", len(pending))
	}
	if pending[0].Event.EventID != "evt-1" {
		t.Errorf("expected evt-1, got %s", pending[0].Event.EventID)
	}
}

func TestDLQMarkRetriedSuccessRemovesEntry(t *testing.T) {
	cfg := DefaultDLQConfig()
	cfg.InitialBackoff = 0
	dlq := NewDLQ(cfg)

	event := models.AttributionEvent{EventID: "evt-1"}
	dlq.Add(event, errors.New("boom"))
	dlq.MarkRetried("evt-1", nil)

	if dlq.Len() != 0 {
		t.Errorf("expected entry removed after successful retry, got len %d", dlq.Len())
	}
}

func TestDLQMarkRetriedFailureBacksOff(t *testing.T) {
	cfg := DefaultDLQConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = time.Hour
	dlq := NewDLQ(cfg)

	event := models.AttributionEvent{EventID: "evt-1"}
	dlq.Add(event, errors.New("boom"))

	entry := dlq.entries.Get("evt-1")
	firstRetry := entry.Value.NextRetry

	dlq.MarkRetried("evt-1", errors.New("still failing"))

	entry = dlq.entries.Get("evt-1")
	if !entry.Value.NextRetry.After(firstRetry) {
		t.Error("expected NextRetry to move further into the future after a failed retry")
	}
	if entry.Value.RetryCount != 1 {
		t.Errorf("expected RetryCount=1, got %d", entry.Value.RetryCount)
	}
}

func TestDLQCleanupEvictsExpired(t *testing.T) {
	cfg := DefaultDLQConfig()
	cfg.RetentionTime = time.Millisecond
	dlq := NewDLQ(cfg)

	dlq.Add(models.AttributionEvent{EventID: "evt-1"}, errors.New("boom"))
	time.Sleep(5 * time.Millisecond)

	removed := dlq.Cleanup()
	if removed != 1 {
		t.Errorf("expected 1 entry evicted, got %d", removed)
	}
	if dlq.Len() != 0 {
		t.Errorf("expected DLQ empty after cleanup, got %d", dlq.Len())
	}
}

func TestDLQEvictsOldestAtCapacity(t *testing.T) {
	cfg := DefaultDLQConfig()
	cfg.MaxEntries = 2
	dlq := NewDLQ(cfg)

	dlq.Add(models.AttributionEvent{EventID: "evt-1"}, errors.New("boom"))
	time.Sleep(time.Millisecond)
	dlq.Add(models.AttributionEvent{EventID: "evt-2"}, errors.New("boom"))
	time.Sleep(time.Millisecond)
	dlq.Add(models.AttributionEvent{EventID: "evt-3"}, errors.New("boom"))

	if dlq.Len() != 2 {
		t.Fatalf("expected capacity-bounded len=2, got %d", dlq.Len())
	}
	if dlq.entries.Get("evt-1") != nil {
		t.Error("expected oldest entry evt-1 to be evicted")
	}
}

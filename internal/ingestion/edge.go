// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package ingestion

import (
	"context"
	"time"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/logging"
	"github.com/tomtom215/sponsorscope/internal/models"
	"github.com/tomtom215/sponsorscope/internal/tenant"
)

// Store is the subset of attribution.Store the edge writes through. The
// store write is synchronous and authoritative; the NATS
// publish below is a best-effort fan-out side channel, never the delivery
// mechanism to the store.
type Store interface {
	Ingest(ctx context.Context, e models.AttributionEvent) error
}

// Edge is the attribution ingestion edge: every event is written to the
// store synchronously, then best-effort published onto JetStream for
// downstream fan-out. A publish failure never fails the ingest call — the
// event is queued in the DLQ and redelivered by Forwarder once the broker
// recovers.
type Edge struct {
	store     Store
	publisher *Publisher
	dlq       *DLQ
	events    *logging.EventLogger
}

// NewEdge constructs an Edge. publisher may be nil to disable the NATS
// fan-out entirely (events are still ingested synchronously).
func NewEdge(store Store, publisher *Publisher, dlq *DLQ) *Edge {
	return &Edge{store: store, publisher: publisher, dlq: dlq, events: logging.NewEventLogger()}
}

// Ingest upserts event into the store, then best-effort publishes it onto
// JetStream. Returns the store's error only; publish failures are
// absorbed into the DLQ. The edge is where an external caller's tenant
// claim enters the core, so the tenant ID is validated here and scoped
// onto ctx for everything downstream.
func (e *Edge) Ingest(ctx context.Context, event models.AttributionEvent) error {
	tid, err := tenant.Parse(event.TenantID)
	if err != nil {
		return apperrors.New(apperrors.KindValidation, "ingestion", "Ingest", "invalid tenant id: "+event.TenantID)
	}
	ctx = tenant.WithContext(ctx, tid)
	ctx = logging.ContextWithTenantID(ctx, event.TenantID)

	e.events.LogEventReceived(ctx, event.EventID, event.CampaignID, string(event.Method))

	start := time.Now()
	if err := e.store.Ingest(ctx, event); err != nil {
		e.events.LogEventFailed(ctx, event.EventID, err)
		return err
	}
	e.events.LogEventProcessed(ctx, event.EventID, time.Since(start).Milliseconds())

	if e.publisher == nil {
		return nil
	}

	if err := e.publisher.Publish(ctx, event); err != nil {
		e.events.LogDLQEntry(ctx, event.EventID, err, 0)
		e.dlq.Add(event, err)
		return nil
	}
	e.events.LogEventPublished(ctx, event.EventID, "attribution")
	return nil
}

// Forwarder periodically drains the Edge's DLQ, retrying the NATS publish
// for each entry whose backoff has elapsed.
type Forwarder struct {
	edge     *Edge
	interval time.Duration
}

// NewForwarder constructs a Forwarder polling every interval.
func NewForwarder(edge *Edge, interval time.Duration) *Forwarder {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Forwarder{edge: edge, interval: interval}
}

// Serve drains pending DLQ entries until ctx is canceled, satisfying
// suture.Service.
func (f *Forwarder) Serve(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			f.drainOnce(ctx)
		}
	}
}

func (f *Forwarder) drainOnce(ctx context.Context) {
	if f.edge.publisher == nil {
		return
	}
	for _, entry := range f.edge.dlq.PendingRetries() {
		err := f.edge.publisher.Publish(ctx, entry.Event)
		f.edge.dlq.MarkRetried(entry.Event.EventID, err)
	}
	f.edge.dlq.Cleanup()
}

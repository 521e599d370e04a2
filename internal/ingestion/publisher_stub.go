// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

//go:build !nats

package ingestion

import (
	"context"
	"fmt"

	"github.com/tomtom215/sponsorscope/internal/config"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// Publisher is a stub used when built without the nats tag. Every publish
// fails immediately, routing all events to the DLQ. Build with -tags=nats
// for the JetStream-backed implementation.
type Publisher struct{}

// NewPublisher returns a stub publisher; cfg is ignored.
func NewPublisher(cfg config.MessagingConfig) (*Publisher, error) {
	return &Publisher{}, nil
}

// Publish always fails in the stub build.
func (p *Publisher) Publish(ctx context.Context, event models.AttributionEvent) error {
	return fmt.Errorf("nats publisher not available: build with -tags=nats")
}

// Close is a no-op.
func (p *Publisher) Close() error { return nil }

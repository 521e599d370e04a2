// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/sponsorscope/internal/config"
	"github.com/tomtom215/sponsorscope/internal/ingestion"
	"github.com/tomtom215/sponsorscope/internal/logging"
)

// IngestionComponents bundles the attribution ingestion edge and its
// supporting NATS plumbing for lifecycle management. Building without
// -tags=nats still produces a working edge: Publisher becomes a stub that
// always fails, so every event falls back to the DLQ and is retried by the
// Forwarder once the binary is rebuilt with NATS support.
type IngestionComponents struct {
	Server    *ingestion.EmbeddedServer
	Publisher *ingestion.Publisher
	DLQ       *ingestion.DLQ
	Edge      *ingestion.Edge
	Forwarder *ingestion.Forwarder
}

// initIngestion wires the attribution store behind a best-effort NATS
// publish path via staged initialization (embedded server → connect →
// publisher).
func initIngestion(cfg config.MessagingConfig, store ingestion.Store) (*IngestionComponents, error) {
	comp := &IngestionComponents{}

	if !cfg.Enabled {
		logging.Info().Msg("messaging disabled; attribution ingestion writes to the store only")
		comp.Edge = ingestion.NewEdge(store, nil, nil)
		return comp, nil
	}

	effectiveCfg := cfg
	if cfg.EmbeddedServer {
		server, err := ingestion.NewEmbeddedServer(cfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		comp.Server = server
		effectiveCfg.URL = server.ClientURL()
		logging.Info().Str("url", effectiveCfg.URL).Msg("embedded NATS server ready")
	}

	publisher, err := ingestion.NewPublisher(effectiveCfg)
	if err != nil {
		if comp.Server != nil {
			_ = comp.Server.Shutdown(context.Background())
		}
		return nil, fmt.Errorf("create attribution publisher: %w", err)
	}
	comp.Publisher = publisher

	dlqCfg := ingestion.DefaultDLQConfig()
	if cfg.DLQCapacity > 0 {
		dlqCfg.MaxEntries = cfg.DLQCapacity
	}
	comp.DLQ = ingestion.NewDLQ(dlqCfg)

	comp.Edge = ingestion.NewEdge(store, comp.Publisher, comp.DLQ)
	comp.Forwarder = ingestion.NewForwarder(comp.Edge, 30*time.Second)

	return comp, nil
}

// Close releases the publisher and, if started here, the embedded NATS
// server, in reverse order of construction.
func (c *IngestionComponents) Close() error {
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("error closing attribution publisher")
		}
	}
	if c.Server != nil {
		if err := c.Server.Shutdown(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("error stopping embedded NATS server")
		}
	}
	return nil
}

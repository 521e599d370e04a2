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
)

// EmbeddedServer is a no-op stand-in for builds without -tags=nats.
type EmbeddedServer struct{}

// NewEmbeddedServer always fails: an embedded NATS server requires
// rebuilding with -tags=nats.
func NewEmbeddedServer(cfg config.MessagingConfig) (*EmbeddedServer, error) {
	return nil, fmt.Errorf("embedded NATS server requested but this binary was built without -tags=nats")
}

func (s *EmbeddedServer) ClientURL() string { return "" }

func (s *EmbeddedServer) Shutdown(ctx context.Context) error { return nil }

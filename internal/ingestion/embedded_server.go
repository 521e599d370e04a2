// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

//go:build nats

package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/sponsorscope/internal/config"
)

// EmbeddedServer wraps a NATS JetStream server running in-process, for
// single-instance deployments that don't want to operate an external NATS
// cluster.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer starts an embedded JetStream-enabled NATS server bound
// to cfg's store directory and resource limits. It blocks until the server
// is ready to accept connections or 30 seconds elapse.
func NewEmbeddedServer(cfg config.MessagingConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName:         "attribution-edge",
		Host:               "127.0.0.1",
		Port:               4222,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		DontListen:         false,
		MaxPayload:         8 * 1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within timeout")
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the URL clients (including this process's own
// Publisher) should dial to reach the embedded server.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the embedded server, waiting for it to drain or ctx to
// expire, whichever comes first.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.server.WaitForShutdown()
		return nil
	}
}

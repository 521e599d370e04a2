// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

/*
Package supervisor provides Erlang-style process supervision for the core
engine's long-running services, built on suture v4.

# Tree Layout

	root ("sponsorscope")
	├── ingestion-layer
	│   └── DLQ forwarder (and a JetStream consumer when messaging is on)
	├── scheduler-layer
	│   └── priority scheduler dispatch loop
	└── jobs-layer
	    └── automation-jobs runners outside the scheduler, if any

Each layer is its own child supervisor with independent failure counting,
so a crash-looping dispatch loop backs off without touching attribution
ingestion, and vice versa.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    ...
	}
	tree.AddIngestionService(forwarder)
	tree.AddSchedulerService(sched)

	errCh := tree.ServeBackground(ctx)
	...
	if err := <-errCh; err != nil {
	    logging.Error().Err(err).Msg("supervisor tree error")
	}

# Service Contract

Services implement suture.Service: Serve(ctx) runs until cancellation or
failure. A returned error triggers a restart (with decay/backoff per
TreeConfig); suture.ErrDoNotRestart marks a clean permanent exit; returning
ctx.Err() on cancellation is the normal shutdown path.

# What Is Not Supervised

DuckDB and Badger are embedded libraries, not services: their lifetimes
track the process and their handles are owned by the persistence and cache
packages. Request-scoped work (ROI calculation, scoring, event ingestion)
runs under its caller, not under the tree.

# Shutdown

Cancelling the Serve context stops the tree; each service gets
ShutdownTimeout to return. UnstoppedServiceReport names the services that
missed the deadline, which main logs before exiting.
*/
package supervisor

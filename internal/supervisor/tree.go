// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration. Zero values take suture's
// own production defaults.
type TreeConfig struct {
	// FailureThreshold is the decayed failure count at which a layer
	// enters backoff instead of restarting immediately.
	FailureThreshold float64

	// FailureDecay is the half-life, in seconds, of the failure count.
	FailureDecay float64

	// FailureBackoff is how long a layer waits once over threshold.
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long each service gets to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's built-in defaults, spelled out.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

// SupervisorTree is the process supervision hierarchy for the core engine:
//
//	root
//	├── ingestion-layer   attribution edge forwarder / DLQ drainer
//	├── scheduler-layer   priority scheduler dispatch loop
//	└── jobs-layer        automation-jobs cron runner
//
// Each layer restarts its own services independently, so a crash-looping
// scheduler never takes down in-flight attribution ingestion.
type SupervisorTree struct {
	root      *suture.Supervisor
	ingestion *suture.Supervisor
	scheduler *suture.Supervisor
	jobs      *suture.Supervisor
	config    TreeConfig
}

// NewSupervisorTree builds the three-layer tree. Supervision events are
// logged through the given slog.Logger (see logging.NewSlogLogger for the
// zerolog-backed one).
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	spec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Only the root carries the event hook; children inherit it when added.
	rootSpec := spec
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:      suture.New("sponsorscope", rootSpec),
		ingestion: suture.New("ingestion-layer", spec),
		scheduler: suture.New("scheduler-layer", spec),
		jobs:      suture.New("jobs-layer", spec),
		config:    config,
	}
	t.root.Add(t.ingestion)
	t.root.Add(t.scheduler)
	t.root.Add(t.jobs)
	return t, nil
}

// AddIngestionService adds a service to the ingestion layer: the DLQ
// forwarder, or a JetStream consumer when messaging is enabled.
func (t *SupervisorTree) AddIngestionService(svc suture.Service) suture.ServiceToken {
	return t.ingestion.Add(svc)
}

// AddSchedulerService adds a service to the scheduler layer; in practice
// the priority scheduler's dispatch loop.
func (t *SupervisorTree) AddSchedulerService(svc suture.Service) suture.ServiceToken {
	return t.scheduler.Add(svc)
}

// AddJobsService adds a service to the jobs layer, for runners that drive
// the automation jobs outside the scheduler.
func (t *SupervisorTree) AddJobsService(svc suture.Service) suture.ServiceToken {
	return t.jobs.Add(svc)
}

// Serve runs the tree and blocks until ctx is cancelled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in its own goroutine; the returned channel
// yields the terminal error (or nil) once the tree stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop within the
// shutdown timeout. main logs these before exiting so a hung shutdown
// names its culprit.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

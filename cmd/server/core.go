// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package main

import (
	"github.com/tomtom215/sponsorscope/internal/attribution"
	"github.com/tomtom215/sponsorscope/internal/automation"
	"github.com/tomtom215/sponsorscope/internal/cache"
	"github.com/tomtom215/sponsorscope/internal/events"
	"github.com/tomtom215/sponsorscope/internal/matchmaking"
	"github.com/tomtom215/sponsorscope/internal/persistence"
	"github.com/tomtom215/sponsorscope/internal/roi"
	"github.com/tomtom215/sponsorscope/internal/scheduler"
)

// Core bundles every constructed domain service into one immutable handle,
// passed explicitly through constructors rather than stashed on a
// process-wide global. A future edge layer built against this module
// imports Core's constituent packages directly (Attribution, ROI,
// Matchmaking, Scheduler) rather than reaching for ambient state.
type Core struct {
	Store       *persistence.Store
	Events      *events.Logger
	Cache       cache.Cacher
	Attribution *attribution.Store
	ROI         *roi.Calculator
	Matchmaking *matchmaking.Scorer
	Automation  *automation.Jobs
	Scheduler   *scheduler.Scheduler
	Ingestion   *IngestionComponents
}

// Close releases every resource Core owns, in dependency order: ingestion
// first (stops accepting new events), then the event logger's buffered
// writer, then the cache, then the store.
func (c *Core) Close() error {
	if c.Ingestion != nil {
		_ = c.Ingestion.Close()
	}
	if c.Events != nil {
		_ = c.Events.Close()
	}
	if closer, ok := c.Cache.(*cache.BadgerCache); ok {
		_ = closer.Close()
	}
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}

// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/sponsorscope/internal/attribution"
	"github.com/tomtom215/sponsorscope/internal/automation"
	"github.com/tomtom215/sponsorscope/internal/cache"
	"github.com/tomtom215/sponsorscope/internal/config"
	"github.com/tomtom215/sponsorscope/internal/events"
	"github.com/tomtom215/sponsorscope/internal/logging"
	"github.com/tomtom215/sponsorscope/internal/matchmaking"
	"github.com/tomtom215/sponsorscope/internal/persistence"
	"github.com/tomtom215/sponsorscope/internal/roi"
	"github.com/tomtom215/sponsorscope/internal/scheduler"
	"github.com/tomtom215/sponsorscope/internal/supervisor"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Exit 2 distinguishes a configuration error from the bootstrap
		// failures below (exit 1) for the supervisor.
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(2)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().Str("environment", cfg.Server.Environment).Msg("starting sponsorscope core engine")

	core, err := buildCore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to build core services")
	}
	defer func() {
		if err := core.Close(); err != nil {
			logging.Error().Err(err).Msg("error during shutdown")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	if core.Ingestion.Forwarder != nil {
		tree.AddIngestionService(core.Ingestion.Forwarder)
		logging.Info().Msg("ingestion DLQ forwarder added to supervisor tree")
	}
	tree.AddSchedulerService(core.Scheduler)
	logging.Info().Msg("scheduler dispatch loop added to supervisor tree")

	if cfg.Events.Enabled {
		go core.Events.StartCleanup(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context cancelled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("sponsorscope core engine stopped")
}

// buildCore constructs every domain service in dependency order: store →
// event logger → attribution/matchmaking/automation → scheduler →
// ingestion edge, then registers the automation jobs with the scheduler.
func buildCore(cfg *config.Config) (*Core, error) {
	store, err := persistence.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	eventStore := events.NewDuckDBStore(store.Conn())
	if err := eventStore.CreateTable(context.Background()); err != nil {
		_ = store.Close()
		return nil, err
	}
	evtLogger := events.NewLogger(eventStore, events.Config{
		Enabled:         cfg.Events.Enabled,
		BufferSize:      cfg.Events.BufferSize,
		LogToStdout:     cfg.Events.LogToStdout,
		RetentionDays:   cfg.Events.RetentionDays,
		CleanupInterval: cfg.Events.CleanupInterval,
	})

	attrStore := attribution.New(store.TimeSeries(), evtLogger)
	roiCalc := roi.New()

	var episodeCache cache.Cacher
	if badgerCache, err := cache.NewBadger(cfg.Cache.Path, cfg.Cache.DefaultTTL); err != nil {
		logging.Warn().Err(err).Msg("failed to open persistent cache, falling back to in-memory TTL cache")
		episodeCache = cache.NewTTL(cfg.Cache.DefaultTTL)
	} else {
		episodeCache = badgerCache
	}

	scorer := matchmaking.New(store.Catalog(), store.Relational(), evtLogger).WithCache(episodeCache)
	jobs := automation.New(store.Relational(), scorer, evtLogger, cfg.Scheduler.RetryBaseDelay)

	sched := scheduler.New(cfg.Scheduler, evtLogger)
	if err := registerAutomationJobs(sched, jobs, store, cfg.Server.DefaultTenantID); err != nil {
		_ = evtLogger.Close()
		_ = store.Close()
		return nil, err
	}

	ingestionComp, err := initIngestion(cfg.Messaging, attrStore)
	if err != nil {
		_ = evtLogger.Close()
		_ = store.Close()
		return nil, err
	}

	return &Core{
		Store:       store,
		Events:      evtLogger,
		Cache:       episodeCache,
		Attribution: attrStore,
		ROI:         roiCalc,
		Matchmaking: scorer,
		Automation:  jobs,
		Scheduler:   sched,
		Ingestion:   ingestionComp,
	}, nil
}

// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/sponsorscope/internal/logging"
)

// Config configures the async domain event logger.
type Config struct {
	Enabled         bool
	BufferSize      int
	LogToStdout     bool
	RetentionDays   int
	CleanupInterval time.Duration
}

// DefaultConfig returns sensible defaults, mirroring audit.DefaultConfig.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		BufferSize:      1000,
		LogToStdout:     false,
		RetentionDays:   90,
		CleanupInterval: 24 * time.Hour,
	}
}

// Logger is the async-buffered structured domain event logger. Emit never
// blocks the caller: a full buffer drops the event with a warning log line
// rather than applying backpressure to the core operation that raised it.
type Logger struct {
	cfg       Config
	store     Store
	eventChan chan *Event
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
}

// NewLogger creates a Logger writing to store, starting its async writer.
func NewLogger(store Store, cfg Config) *Logger {
	l := &Logger{
		cfg:       cfg,
		store:     store,
		eventChan: make(chan *Event, cfg.BufferSize),
		stopChan:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.asyncWriter()
	return l
}

func (l *Logger) asyncWriter() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case e := <-l.eventChan:
					l.writeEvent(e)
				default:
					return
				}
			}
		case e := <-l.eventChan:
			l.writeEvent(e)
		}
	}
}

func (l *Logger) writeEvent(e *Event) {
	if l.cfg.LogToStdout {
		logging.Info().
			Str("event_type", string(e.Type)).
			Str("tenant_id", e.TenantID).
			Str("subject", e.Subject).
			Msg(e.Message)
	}
	if l.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.store.Save(ctx, e); err != nil {
		logging.Error().Err(err).Str("event_type", string(e.Type)).Msg("failed to persist domain event")
	}
}

// Emit records a domain event for tenantID. subject identifies the
// campaign/job/pair the event concerns; metadata is marshaled to JSON.
func (l *Logger) Emit(tenantID string, typ Type, severity Severity, subject, message string, metadata any) {
	l.mu.RLock()
	enabled := l.cfg.Enabled
	l.mu.RUnlock()
	if !enabled {
		return
	}

	e := &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      typ,
		Severity:  severity,
		TenantID:  tenantID,
		Subject:   subject,
		Message:   message,
		Metadata:  mustJSON(metadata),
	}

	select {
	case l.eventChan <- e:
	default:
		logging.Warn().Str("event_type", string(typ)).Msg("domain event buffer full, dropping event")
	}
}

// Query retrieves events matching filter.
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	if l.store == nil {
		return nil, nil
	}
	return l.store.Query(ctx, filter)
}

// StartCleanup runs the retention cleanup loop until ctx is cancelled.
func (l *Logger) StartCleanup(ctx context.Context) {
	if l.cfg.RetentionDays <= 0 || l.store == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(l.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().UTC().AddDate(0, 0, -l.cfg.RetentionDays)
				if n, err := l.store.Delete(ctx, cutoff); err != nil {
					logging.Error().Err(err).Msg("domain event cleanup failed")
				} else if n > 0 {
					logging.Info().Int64("count", n).Msg("cleaned up old domain events")
				}
			}
		}
	}()
}

// Close drains the buffer and stops the async writer.
func (l *Logger) Close() error {
	close(l.stopChan)
	l.wg.Wait()
	return nil
}

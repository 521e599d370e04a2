// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration for the sponsorscope core engine.
// It is assembled by LoadWithKoanf from defaults, an optional YAML file, and
// environment variables, in that order of increasing precedence.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Cache     CacheConfig     `koanf:"cache"`
	Messaging MessagingConfig `koanf:"messaging"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Events    EventsConfig    `koanf:"events"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig configures the DuckDB-backed relational and time-series
// store, and its read-replica attachment.
type DatabaseConfig struct {
	// Path is the primary DuckDB database file.
	Path string `koanf:"path"`
	// ReplicaPath is a second, read-only attached DuckDB file used to route
	// read-only statements away from the primary connection.
	ReplicaPath string `koanf:"replica_path"`
	MaxMemory   string `koanf:"max_memory"`
	// Threads of 0 means use runtime.NumCPU().
	Threads int `koanf:"threads"`
	// RetentionDays is how long raw listener metrics are kept before the
	// retention cutoff deletes them. 0 disables retention.
	RetentionDays int `koanf:"retention_days"`
	// AggregateRefreshInterval controls how often the daily rollup
	// materialization is refreshed.
	AggregateRefreshInterval time.Duration `koanf:"aggregate_refresh_interval"`
}

// CacheConfig configures the Badger-backed persistent TTL cache.
type CacheConfig struct {
	Path       string        `koanf:"path"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
}

// MessagingConfig configures the watermill/NATS JetStream attribution
// ingestion edge.
type MessagingConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	EmbeddedServer bool          `koanf:"embedded_server"`
	StoreDir       string        `koanf:"store_dir"`
	Stream         string        `koanf:"stream"`
	Subject        string        `koanf:"subject"`
	DurableName    string        `koanf:"durable_name"`
	QueueGroup     string        `koanf:"queue_group"`
	MaxMemory      int64         `koanf:"max_memory"`
	MaxStore       int64         `koanf:"max_store"`
	RetentionDays  int           `koanf:"retention_days"`
	DLQCapacity    int           `koanf:"dlq_capacity"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

// SchedulerConfig configures the priority job scheduler's resource budget
// and dispatch throttling.
type SchedulerConfig struct {
	MaxConcurrentJobs int           `koanf:"max_concurrent_jobs"`
	MaxCPUPercent     float64       `koanf:"max_cpu_percent"`
	MaxMemoryMB       int64         `koanf:"max_memory_mb"`
	DispatchRateHz    float64       `koanf:"dispatch_rate_hz"`
	DispatchBurst     int           `koanf:"dispatch_burst"`
	DefaultTimeout    time.Duration `koanf:"default_timeout"`
	RetryBaseDelay    time.Duration `koanf:"retry_base_delay"`
	MaxRetries        int           `koanf:"max_retries"`
}

// EventsConfig configures the structured domain event logger.
type EventsConfig struct {
	Enabled         bool          `koanf:"enabled"`
	BufferSize      int           `koanf:"buffer_size"`
	LogToStdout     bool          `koanf:"log_to_stdout"`
	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// ServerConfig configures the process-level listen address used by the
// (unbuilt) edge layer's health/readiness probes.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Environment string        `koanf:"environment"`
	Timeout     time.Duration `koanf:"timeout"`
	// DefaultTenantID is the tenant the background automation jobs
	// run under when cmd/server registers them with the scheduler. A
	// multi-tenant edge layer enqueues per-tenant executions directly;
	// this is only the single-tenant default for the standalone binary.
	DefaultTenantID string `koanf:"default_tenant_id"`
}

// LoggingConfig configures the zerolog-based structured logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Validate checks the configuration for internally inconsistent values.
// It does not check filesystem or network reachability; those surface as
// TransportError at first use.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must be >= 0, got %d", c.Database.Threads)
	}
	if c.Database.RetentionDays < 0 {
		return fmt.Errorf("database.retention_days must be >= 0, got %d", c.Database.RetentionDays)
	}
	if c.Cache.DefaultTTL < 0 {
		return fmt.Errorf("cache.default_ttl must be >= 0, got %s", c.Cache.DefaultTTL)
	}
	if c.Scheduler.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("scheduler.max_concurrent_jobs must be > 0, got %d", c.Scheduler.MaxConcurrentJobs)
	}
	if c.Scheduler.MaxCPUPercent <= 0 || c.Scheduler.MaxCPUPercent > 100 {
		return fmt.Errorf("scheduler.max_cpu_percent must be in (0, 100], got %f", c.Scheduler.MaxCPUPercent)
	}
	if c.Scheduler.MaxMemoryMB <= 0 {
		return fmt.Errorf("scheduler.max_memory_mb must be > 0, got %d", c.Scheduler.MaxMemoryMB)
	}
	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("scheduler.max_retries must be >= 0, got %d", c.Scheduler.MaxRetries)
	}
	if c.Messaging.Enabled && c.Messaging.Stream == "" {
		return fmt.Errorf("messaging.stream must not be empty when messaging is enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug|info|warn|error, got %q", c.Logging.Level)
	}
	return nil
}

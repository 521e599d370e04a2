// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sponsorscope/config.yaml",
	"/etc/sponsorscope/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:                     "/data/sponsorscope.duckdb",
			ReplicaPath:              "",
			MaxMemory:                "2GB",
			Threads:                  0,
			RetentionDays:            400,
			AggregateRefreshInterval: 1 * time.Hour,
		},
		Cache: CacheConfig{
			Path:       "/data/sponsorscope-cache",
			DefaultTTL: 5 * time.Minute,
		},
		Messaging: MessagingConfig{
			Enabled:        true,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			Stream:         "ATTRIBUTION_EVENTS",
			Subject:        "attribution.events.>",
			DurableName:    "attribution-consumer",
			QueueGroup:     "attribution-processors",
			MaxMemory:      1 << 30,
			MaxStore:       10 << 30,
			RetentionDays:  7,
			DLQCapacity:    10000,
			PublishTimeout: 5 * time.Second,
		},
		Scheduler: SchedulerConfig{
			MaxConcurrentJobs: 4,
			MaxCPUPercent:     80,
			MaxMemoryMB:       2048,
			DispatchRateHz:    10,
			DispatchBurst:     20,
			DefaultTimeout:    5 * time.Minute,
			RetryBaseDelay:    60 * time.Second,
			MaxRetries:        5,
		},
		Events: EventsConfig{
			Enabled:         true,
			BufferSize:      1000,
			LogToStdout:     false,
			RetentionDays:   90,
			CleanupInterval: 24 * time.Hour,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			Environment:     "production",
			Timeout:         30 * time.Second,
			DefaultTenantID: "default",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in three layers:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Legacy Postgres/Redis-shaped env vars map onto this module's DuckDB/Badger
	// equivalents so operators migrating from a Postgres/Redis deployment
	// don't need a translation layer.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// legacyEnvAliases maps Postgres/Redis-era environment variable names onto this
// module's koanf paths, so POSTGRES_DSN/REDIS_URL-shaped deployments can be
// pointed at the DuckDB/Badger equivalents without renaming anything.
var legacyEnvAliases = map[string]string{
	"POSTGRES_DSN":               "database.path",
	"POSTGRES_PATH":              "database.path",
	"POSTGRES_READ_REPLICA_HOST": "database.replica_path",
	"REDIS_URL":                  "cache.path",
	"REDIS_ADDR":                 "cache.path",
	"NATS_URL":                   "messaging.url",
	"SCHEDULER_WORKERS":          "scheduler.max_concurrent_jobs",
	"LOG_LEVEL":                  "logging.level",
	"HTTP_PORT":                  "server.port",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Only the first underscore becomes a path separator; the remainder of the
// name stays snake_case to match this module's multi-word field tags.
//
// Examples:
//   - DATABASE_PATH         -> database.path
//   - SCHEDULER_MAX_RETRIES -> scheduler.max_retries
//   - POSTGRES_DSN          -> database.path (legacy alias)
func envTransformFunc(key string) string {
	if alias, ok := legacyEnvAliases[key]; ok {
		return alias
	}
	lower := strings.ToLower(key)
	if idx := strings.Index(lower, "_"); idx >= 0 {
		return lower[:idx] + "." + lower[idx+1:]
	}
	return lower
}

// GetKoanfInstance exposes a freshly loaded koanf instance for callers that
// need to inspect configuration beyond the typed Config struct (e.g. the
// edge layer probing for forward-compatible keys this core doesn't consume).
func GetKoanfInstance() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, err
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, err
	}
	return k, nil
}

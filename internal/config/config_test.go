// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate cleanly: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"empty database path", func(c *Config) { c.Database.Path = "" }, true},
		{"negative threads", func(c *Config) { c.Database.Threads = -1 }, true},
		{"negative retention", func(c *Config) { c.Database.RetentionDays = -1 }, true},
		{"negative cache ttl", func(c *Config) { c.Cache.DefaultTTL = -1 }, true},
		{"zero concurrent jobs", func(c *Config) { c.Scheduler.MaxConcurrentJobs = 0 }, true},
		{"cpu percent over 100", func(c *Config) { c.Scheduler.MaxCPUPercent = 150 }, true},
		{"zero memory limit", func(c *Config) { c.Scheduler.MaxMemoryMB = 0 }, true},
		{"negative max retries", func(c *Config) { c.Scheduler.MaxRetries = -1 }, true},
		{"messaging enabled without stream", func(c *Config) { c.Messaging.Stream = "" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"valid override", func(c *Config) { c.Scheduler.MaxConcurrentJobs = 16 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("expected no validation error, got %v", err)
			}
		})
	}
}

func TestLoadWithKoanfDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf failed: %v", err)
	}
	if cfg.Database.Path != "/data/sponsorscope.duckdb" {
		t.Errorf("expected default database path, got %q", cfg.Database.Path)
	}
}

func TestLoadWithKoanfEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/override.duckdb")
	t.Setenv("SCHEDULER_MAX_RETRIES", "9")
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf failed: %v", err)
	}
	if cfg.Database.Path != "/tmp/override.duckdb" {
		t.Errorf("expected env override, got %q", cfg.Database.Path)
	}
	if cfg.Scheduler.MaxRetries != 9 {
		t.Errorf("expected scheduler.max_retries=9, got %d", cfg.Scheduler.MaxRetries)
	}
}

func TestLoadWithKoanfLegacyAlias(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "/tmp/legacy.duckdb")
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf failed: %v", err)
	}
	if cfg.Database.Path != "/tmp/legacy.duckdb" {
		t.Errorf("expected legacy alias to map to database.path, got %q", cfg.Database.Path)
	}
}

func TestFindConfigFileFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("database:\n  path: /tmp/from-file.duckdb\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	got := findConfigFile()
	if got != path {
		t.Errorf("expected %q, got %q", path, got)
	}
}

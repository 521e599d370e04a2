// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("default level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("default format = %q, want json", cfg.Format)
	}
	if cfg.Caller {
		t.Error("caller should default to off")
	}
	if !cfg.Timestamp {
		t.Error("timestamp should default to on")
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Level: "debug", Format: "json", Timestamp: true, Output: &buf})
	Info().Str("campaign_id", "c-1").Msg("roi computed")

	output := buf.String()
	if !strings.Contains(output, "roi computed") {
		t.Errorf("missing message in output: %s", output)
	}
	if !strings.Contains(output, `"level":"info"`) {
		t.Errorf("missing level field in output: %s", output)
	}
	if !strings.Contains(output, `"campaign_id":"c-1"`) {
		t.Errorf("missing structured field in output: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"WARN", zerolog.WarnLevel},
		{"no-such-level", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelFunctions(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	tests := []struct {
		name  string
		emit  func()
		level string
	}{
		{"Debug", func() { Debug().Msg("debug msg") }, "debug"},
		{"Info", func() { Info().Msg("info msg") }, "info"},
		{"Warn", func() { Warn().Msg("warn msg") }, "warn"},
		{"Error", func() { Error().Msg("error msg") }, "error"},
	}

	for _, tt := range tests {
		buf.Reset()
		tt.emit()
		if !strings.Contains(buf.String(), `"level":"`+tt.level+`"`) {
			t.Errorf("%s: level %q not in output: %s", tt.name, tt.level, buf.String())
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))

	logger := WithComponent("scheduler")
	logger.Info().Msg("dispatch loop started")

	output := buf.String()
	if !strings.Contains(output, `"component":"scheduler"`) {
		t.Errorf("missing component field in output: %s", output)
	}
}

func TestErr(t *testing.T) {
	var buf bytes.Buffer

	SetLogger(zerolog.New(&buf))

	Err(errors.New("replica unreachable")).Msg("falling back to primary")

	output := buf.String()
	if !strings.Contains(output, "replica unreachable") {
		t.Errorf("missing error in output: %s", output)
	}
	if !strings.Contains(output, `"level":"error"`) {
		t.Errorf("Err should log at error level: %s", output)
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer

	Init(Config{Level: "info", Format: "console", Timestamp: false, Output: &buf})
	Info().Msg("console test")

	if strings.Contains(buf.String(), `"level"`) {
		t.Errorf("console format should not be JSON: %s", buf.String())
	}
}

func TestNewTestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewTestLogger(&buf)
	logger.Info().Str("event_id", "e-1").Msg("event stored")

	output := buf.String()
	if !strings.Contains(output, "event stored") || !strings.Contains(output, "e-1") {
		t.Errorf("unexpected test logger output: %s", output)
	}
}

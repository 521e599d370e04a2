// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/config"
	"github.com/tomtom215/sponsorscope/internal/logging"
)

// Store wraps a DuckDB connection that serves both the relational port
// (transactional CRUD) and the time-series port (hypertable-style
// analytics), mirroring a single physical engine doing both jobs. When a
// replica path is configured, a second read-only connection is opened
// against it and reads may be routed there.
type Store struct {
	primary *sql.DB
	replica *sql.DB // nil when no replica is configured
	cfg     *config.DatabaseConfig
}

// New opens the primary DuckDB connection, and the read-replica connection
// if configured, then bootstraps the schema on the primary.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	primary, err := openConn(cfg.Path, cfg.Threads, cfg.MaxMemory)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "New", "open primary store", err)
	}
	if err := configurePool(primary); err != nil {
		closeQuietly(primary)
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "New", "configure primary pool", err)
	}

	s := &Store{primary: primary, cfg: cfg}

	if cfg.ReplicaPath != "" {
		replica, err := openConn(cfg.ReplicaPath, cfg.Threads, cfg.MaxMemory)
		if err != nil {
			logging.Warn().Err(err).Msg("read replica unavailable at startup, reads will fall back to primary")
		} else {
			if err := configurePool(replica); err != nil {
				closeQuietly(replica)
				logging.Warn().Err(err).Msg("failed to configure replica pool, reads will fall back to primary")
			} else {
				s.replica = replica
			}
		}
	}

	if err := s.bootstrap(context.Background()); err != nil {
		closeQuietly(primary)
		if s.replica != nil {
			closeQuietly(s.replica)
		}
		return nil, apperrors.Wrap(apperrors.KindTransport, "persistence", "New", "bootstrap schema", err)
	}

	return s, nil
}

func openConn(path string, threads int, maxMemory string) (*sql.DB, error) {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", path, threads, maxMemory)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return conn, nil
}

func configurePool(conn *sql.DB) error {
	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)
	return nil
}

// Close closes both connections.
func (s *Store) Close() error {
	var firstErr error
	if s.replica != nil {
		if err := s.replica.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.primary.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Ping checks that the primary connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.primary.PingContext(ctx)
}

// Conn returns the underlying primary *sql.DB for components (events,
// ingestion) that need to create and query their own tables against the
// same physical engine.
func (s *Store) Conn() *sql.DB {
	return s.primary
}

// conn picks primary or replica for a query: writes always go to
// primary; reads route to the replica only when explicitly requested or
// auto-detected, and only when the replica is healthy.
func (s *Store) conn(useReadReplica bool, query string) *sql.DB {
	if s.replica == nil {
		return s.primary
	}
	if useReadReplica || isReadOnlyStatement(query) {
		return s.replica
	}
	return s.primary
}

// isReadOnlyStatement auto-detects SELECT/WITH statements.
func isReadOnlyStatement(query string) bool {
	trimmed := strings.TrimSpace(strings.ToUpper(query))
	return strings.HasPrefix(trimmed, "SELECT") || strings.HasPrefix(trimmed, "WITH")
}

func closeQuietly(conn *sql.DB) {
	if conn != nil {
		_ = conn.Close()
	}
}

// isConnectionError reports whether err indicates the underlying connection
// was lost rather than a query-level failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, needle := range []string{
		"connection refused", "connection reset", "broken pipe",
		"bad connection", "database is closed",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// isAlreadyExists reports whether err is a benign "already exists" error
// from a CREATE ... IF NOT EXISTS-style bootstrap statement.
func isAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

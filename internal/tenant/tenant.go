// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package tenant carries the request-scoped tenant identifier that
// every core operation is implicitly scoped to. It is a thin context
// wrapper: the core never resolves a tenant from a session or JWT itself,
// that is the collaborator's job, but every query the core issues includes
// the ID pulled from here.
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ID identifies a tenant. The zero value is invalid; use Admin() explicitly
// for the rare administrative operations that are not tenant-scoped.
type ID uuid.UUID

// Admin is the sentinel used by administrative recalculation operations
// that intentionally span every tenant.
var Admin = ID(uuid.Nil)

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsAdmin reports whether id is the administrative sentinel.
func (id ID) IsAdmin() bool {
	return id == Admin
}

// ErrMissingTenant is returned by FromContext when no tenant ID was attached.
var ErrMissingTenant = errors.New("tenant: no tenant ID in context")

type contextKey struct{}

// WithContext returns a new context carrying id.
func WithContext(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the tenant ID attached to ctx. Returns
// ErrMissingTenant if none was attached - callers should treat this as a
// programming error, not a recoverable condition, since every core entry
// point requires a tenant scope to be established by its caller first.
func FromContext(ctx context.Context) (ID, error) {
	id, ok := ctx.Value(contextKey{}).(ID)
	if !ok {
		return ID{}, ErrMissingTenant
	}
	return id, nil
}

// Parse parses s as a tenant ID.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, err
	}
	return ID(u), nil
}

// New generates a fresh random tenant ID.
func New() ID {
	return ID(uuid.New())
}

// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package tenant

import (
	"context"
	"errors"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	id := New()
	ctx := WithContext(context.Background(), id)

	got, err := FromContext(ctx)
	if err != nil {
		t.Fatalf("FromContext returned error: %v", err)
	}
	if got != id {
		t.Errorf("got %v, want %v", got, id)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, err := FromContext(context.Background())
	if !errors.Is(err, ErrMissingTenant) {
		t.Errorf("expected ErrMissingTenant, got %v", err)
	}
}

func TestAdminSentinel(t *testing.T) {
	if !Admin.IsAdmin() {
		t.Error("expected Admin.IsAdmin() to be true")
	}
	if New().IsAdmin() {
		t.Error("did not expect a freshly generated ID to be admin")
	}
}

func TestParseRoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id.String())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if parsed != id {
		t.Errorf("got %v, want %v", parsed, id)
	}
}

// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package models holds the core's tenant-scoped entity types: attribution
// events, listener metrics, campaigns, matches, ROI results, and scheduler
// job/execution records. These are plain structs with json tags, one file
// per entity family, enums as typed string constants.
package models

// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

// Package scheduler implements the smart scheduler: a single-process
// priority min-heap over job executions, with dependency and resource
// gating, retries with exponential backoff, per-job timeouts, and a
// concurrency cap. A full cron parser is out of scope; this package
// supports a small fixed grammar instead.
package scheduler

import (
	"strconv"
	"strings"
	"time"
)

// NextRun computes the next fire time for schedule, evaluated from now.
// Recognizes "immediate", "daily" (next 02:00 UTC), "hourly" (next
// top-of-hour), and "*/N * * * *" (next N-minute boundary). Anything else
// falls back to "in one hour".
func NextRun(schedule string, now time.Time) time.Time {
	now = now.UTC()
	switch schedule {
	case "immediate":
		return now
	case "daily":
		next := time.Date(now.Year(), now.Month(), now.Day(), 2, 0, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case "hourly":
		return now.Truncate(time.Hour).Add(time.Hour)
	}

	if n, ok := parseMinuteInterval(schedule); ok {
		minute := now.Minute()
		next := minute - (minute % n) + n
		result := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, time.UTC).Add(time.Duration(next) * time.Minute)
		if !result.After(now) {
			result = result.Add(time.Duration(n) * time.Minute)
		}
		return result
	}

	return now.Add(time.Hour)
}

// parseMinuteInterval recognizes "*/N * * * *", returning N and true on
// success.
func parseMinuteInterval(schedule string) (int, bool) {
	fields := strings.Fields(schedule)
	if len(fields) != 5 {
		return 0, false
	}
	minuteField := fields[0]
	if !strings.HasPrefix(minuteField, "*/") {
		return 0, false
	}
	for _, f := range fields[1:] {
		if f != "*" {
			return 0, false
		}
	}
	n, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
	if err != nil || n <= 0 || n > 59 {
		return 0, false
	}
	return n, true
}

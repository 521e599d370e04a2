// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package models

import "time"

// Priority orders job dispatch; lower values run first (critical=0).
// Retries demote priority by one step, clamped at PriorityBackground.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
	PriorityBackground
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	case PriorityBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Demote returns p demoted by one step, clamped at PriorityBackground.
func (p Priority) Demote() Priority {
	if p >= PriorityBackground {
		return PriorityBackground
	}
	return p + 1
}

// ResourceRequirements is the fixed budget a job execution consumes while
// running.
type ResourceRequirements struct {
	CPU            float64 `json:"cpu"`
	MemoryMB       int     `json:"memory_mb"`
	ConcurrentJobs int     `json:"concurrent_jobs"`
}

// ScheduledJob is a registered unit of recurring work.
type ScheduledJob struct {
	JobID                string               `json:"job_id"`
	Name                 string               `json:"name"`
	Schedule             string               `json:"schedule"`
	Priority             Priority             `json:"priority"`
	DependsOn            []string             `json:"depends_on,omitempty"`
	MaxRetries           int                  `json:"max_retries"`
	TimeoutSeconds       *int                 `json:"timeout_seconds,omitempty"`
	ResourceRequirements ResourceRequirements `json:"resource_requirements"`
	Enabled              bool                 `json:"enabled"`
	LastRun              *time.Time           `json:"last_run,omitempty"`
	NextRun              *time.Time           `json:"next_run,omitempty"`
}

// ExecutionStatus is the lifecycle state of a JobExecution.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionQueued    ExecutionStatus = "queued"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether s is a terminal status.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionCompleted || s == ExecutionFailed || s == ExecutionCancelled
}

// JobExecution is one dispatch attempt of a ScheduledJob.
type JobExecution struct {
	ExecutionID  string          `json:"execution_id"`
	JobID        string          `json:"job_id"`
	Status       ExecutionStatus `json:"status"`
	Priority     Priority        `json:"priority"`
	RetryCount   int             `json:"retry_count"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Result       any             `json:"result,omitempty"`
}

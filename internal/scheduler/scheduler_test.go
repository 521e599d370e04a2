// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/sponsorscope/internal/config"
	"github.com/tomtom215/sponsorscope/internal/models"
)

func testConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		MaxConcurrentJobs: 4,
		MaxCPUPercent:     100,
		MaxMemoryMB:       4096,
	}
}

func waitForTerminal(t *testing.T, s *Scheduler, execID string, timeout time.Duration) models.JobExecution {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		exec, err := s.Status(execID)
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if exec.Status.IsTerminal() {
			return exec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("execution %s did not reach a terminal state within %v", execID, timeout)
	return models.JobExecution{}
}

// Register a job with max_retries=2. Handler fails twice,
// succeeds the third time. Expect exactly three executions: two failed
// (retry_count 1 then 2), one completed.
func TestScheduler_RetryThenSucceed(t *testing.T) {
	s := New(testConfig(), nil)
	s.idleSleep = 5 * time.Millisecond
	s.errSleep = 5 * time.Millisecond

	var mu sync.Mutex
	attempts := 0
	var seenRetryCounts []int

	job := models.ScheduledJob{
		JobID:      "job-retry",
		Name:       "retry-job",
		Schedule:   "immediate",
		Priority:   models.PriorityNormal,
		MaxRetries: 2,
		Enabled:    false, // driven by manual Enqueue, not the scanDue auto-scan
	}
	handler := func(ctx context.Context, j models.ScheduledJob, exec models.JobExecution) (any, error) {
		mu.Lock()
		attempts++
		n := attempts
		seenRetryCounts = append(seenRetryCounts, exec.RetryCount)
		mu.Unlock()
		if n < 3 {
			return nil, context.DeadlineExceeded // any non-nil error triggers a retry
		}
		return "ok", nil
	}
	if err := s.RegisterJob(job, handler); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	firstExecID, err := s.Enqueue("job-retry", nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	exec := waitForTerminal(t, s, firstExecID, 2*time.Second)
	if exec.Status != models.ExecutionFailed {
		t.Fatalf("first execution status = %v, want failed", exec.Status)
	}

	// Poll until three attempts have happened and the last one completed.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := attempts
		mu.Unlock()
		if n >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	finalAttempts := attempts
	retryCounts := append([]int(nil), seenRetryCounts...)
	mu.Unlock()

	if finalAttempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", finalAttempts)
	}
	if len(retryCounts) != 3 || retryCounts[0] != 0 || retryCounts[1] != 1 || retryCounts[2] != 2 {
		t.Errorf("unexpected retry_count sequence: %v", retryCounts)
	}

	cancel()
	<-done
}

func TestScheduler_DependencyGateBlocksUntilSatisfied(t *testing.T) {
	s := New(testConfig(), nil)
	s.idleSleep = 5 * time.Millisecond

	var order []string
	var mu sync.Mutex
	record := func(name string) JobHandler {
		return func(ctx context.Context, j models.ScheduledJob, exec models.JobExecution) (any, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}
	}

	// Enabled: false -- driven by manual Enqueue below, not the scanDue
	// auto-scan, which would otherwise keep re-enqueueing an "immediate"
	// schedule every tick and contaminate the order assertion.
	upstream := models.ScheduledJob{JobID: "upstream", Name: "upstream", Schedule: "immediate", Priority: models.PriorityNormal, Enabled: false}
	downstream := models.ScheduledJob{JobID: "downstream", Name: "downstream", Schedule: "immediate", Priority: models.PriorityCritical, DependsOn: []string{"upstream"}, Enabled: false}

	if err := s.RegisterJob(upstream, record("upstream")); err != nil {
		t.Fatalf("RegisterJob upstream: %v", err)
	}
	if err := s.RegisterJob(downstream, record("downstream")); err != nil {
		t.Fatalf("RegisterJob downstream: %v", err)
	}

	downstreamExecID, err := s.Enqueue("downstream", nil)
	if err != nil {
		t.Fatalf("Enqueue downstream: %v", err)
	}
	upstreamExecID, err := s.Enqueue("upstream", nil)
	if err != nil {
		t.Fatalf("Enqueue upstream: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Serve(ctx) }()

	waitForTerminal(t, s, upstreamExecID, 2*time.Second)
	waitForTerminal(t, s, downstreamExecID, 2*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "upstream" || order[1] != "downstream" {
		t.Errorf("expected upstream before downstream despite downstream's higher priority, got %v", order)
	}
}

// A scheduler with max_concurrent==0 dispatches nothing; the
// queue grows unbounded but the loop must not crash.
func TestScheduler_MaxConcurrentZeroNeverDispatches(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentJobs = 0
	s := New(cfg, nil)

	called := false
	job := models.ScheduledJob{JobID: "never", Name: "never", Schedule: "immediate", Priority: models.PriorityNormal, Enabled: false}
	if err := s.RegisterJob(job, func(ctx context.Context, j models.ScheduledJob, exec models.JobExecution) (any, error) {
		called = true
		return nil, nil
	}); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	execID, err := s.Enqueue("never", nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	s.tick(context.Background())
	s.tick(context.Background())

	if called {
		t.Error("handler should never run when max_concurrent == 0")
	}
	exec, err := s.Status(execID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if exec.Status != models.ExecutionQueued {
		t.Errorf("execution status = %v, want queued", exec.Status)
	}
}

func TestScheduler_ResourceGateBlocksOverBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentJobs = 4
	cfg.MaxMemoryMB = 100
	s := New(cfg, nil)

	release := make(chan struct{})
	job := models.ScheduledJob{
		JobID: "heavy", Name: "heavy", Schedule: "immediate", Priority: models.PriorityNormal, Enabled: false,
		ResourceRequirements: models.ResourceRequirements{MemoryMB: 80},
	}
	if err := s.RegisterJob(job, func(ctx context.Context, j models.ScheduledJob, exec models.JobExecution) (any, error) {
		<-release
		return nil, nil
	}); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	firstID, err := s.Enqueue("heavy", nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	secondID, err := s.Enqueue("heavy", nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	s.tick(context.Background())

	first, _ := s.Status(firstID)
	second, _ := s.Status(secondID)
	if first.Status != models.ExecutionRunning {
		t.Errorf("first execution status = %v, want running", first.Status)
	}
	if second.Status != models.ExecutionQueued {
		t.Errorf("second execution status = %v, want queued (blocked by resource budget)", second.Status)
	}

	close(release)
	waitForTerminal(t, s, firstID, 2*time.Second)
	s.tick(context.Background())
	waitForTerminal(t, s, secondID, 2*time.Second)
}

func TestCancel_QueuedExecution(t *testing.T) {
	s := New(testConfig(), nil)
	job := models.ScheduledJob{JobID: "cancel-me", Name: "cancel-me", Schedule: "immediate", Priority: models.PriorityNormal, Enabled: false}
	if err := s.RegisterJob(job, func(ctx context.Context, j models.ScheduledJob, exec models.JobExecution) (any, error) {
		return nil, nil
	}); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	execID, err := s.Enqueue("cancel-me", nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.Cancel(execID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	exec, err := s.Status(execID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if exec.Status != models.ExecutionCancelled {
		t.Errorf("status = %v, want cancelled", exec.Status)
	}

	if err := s.Cancel(execID); err == nil {
		t.Error("expected error cancelling an already-terminal execution")
	}
}

func TestPriorityDemote_ClampsAtBackground(t *testing.T) {
	p := models.PriorityBackground
	if p.Demote() != models.PriorityBackground {
		t.Errorf("demoting background should stay clamped at background")
	}
}

// Sponsorscope - Podcast Sponsorship Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sponsorscope

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/sponsorscope/internal/apperrors"
	"github.com/tomtom215/sponsorscope/internal/cache"
	"github.com/tomtom215/sponsorscope/internal/config"
	"github.com/tomtom215/sponsorscope/internal/events"
	"github.com/tomtom215/sponsorscope/internal/logging"
	"github.com/tomtom215/sponsorscope/internal/metrics"
	"github.com/tomtom215/sponsorscope/internal/models"
)

// JobHandler performs one unit of work for a job execution. ctx carries
// the per-execution timeout deadline when the job declares one.
type JobHandler func(ctx context.Context, job models.ScheduledJob, exec models.JobExecution) (any, error)

// prioritySlot separates priority bands in the synthetic heap key far
// enough apart that the FIFO sequence counter (the low bits) never spills
// into the next band. At one enqueue per nanosecond this allows ~12.7
// days of continuous operation within a single band before the ordering
// degrades, which is far beyond any real dispatch rate.
const prioritySlot = int64(1) << 40

// Scheduler is the priority job scheduler: a cooperative dispatch loop
// over a min-heap of queued executions, gated by job dependencies and a
// fixed resource budget.
type Scheduler struct {
	mu sync.Mutex

	jobs     map[string]*models.ScheduledJob
	handlers map[string]JobHandler

	queue      *cache.MinHeap[string] // value: execution_id
	executions map[string]*models.JobExecution
	execJob    map[string]string // execution_id -> job_id
	cancelFns  map[string]context.CancelFunc
	completed  map[string]bool // job_id -> has at least one completed execution

	budget models.ResourceRequirements
	used   models.ResourceRequirements

	maxConcurrent  int
	running        int
	seq            uint64
	defaultTimeout time.Duration

	events *events.Logger

	// limiter throttles dispatch bursts. nil means unthrottled.
	limiter *rate.Limiter

	idleSleep time.Duration
	errSleep  time.Duration
}

// New constructs a Scheduler from the scheduler section of the process
// configuration.
func New(cfg config.SchedulerConfig, evt *events.Logger) *Scheduler {
	var limiter *rate.Limiter
	if cfg.DispatchRateHz > 0 {
		burst := cfg.DispatchBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.DispatchRateHz), burst)
	}

	return &Scheduler{
		jobs:       make(map[string]*models.ScheduledJob),
		handlers:   make(map[string]JobHandler),
		queue:      cache.NewMinHeap[string](0),
		executions: make(map[string]*models.JobExecution),
		execJob:    make(map[string]string),
		cancelFns:  make(map[string]context.CancelFunc),
		completed:  make(map[string]bool),
		budget: models.ResourceRequirements{
			CPU:            cfg.MaxCPUPercent,
			MemoryMB:       int(cfg.MaxMemoryMB),
			ConcurrentJobs: cfg.MaxConcurrentJobs,
		},
		maxConcurrent:  cfg.MaxConcurrentJobs,
		defaultTimeout: cfg.DefaultTimeout,
		events:         evt,
		limiter:        limiter,
		idleSleep:      time.Second,
		errSleep:       5 * time.Second,
	}
}

// RegisterJob adds job to the registry under handler, computing its
// initial next_run if unset.
func (s *Scheduler) RegisterJob(job models.ScheduledJob, handler JobHandler) error {
	if job.JobID == "" {
		return apperrors.New(apperrors.KindValidation, "scheduler", "RegisterJob", "job_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.NextRun == nil {
		next := NextRun(job.Schedule, time.Now())
		job.NextRun = &next
	}
	s.jobs[job.JobID] = &job
	s.handlers[job.JobID] = handler
	return nil
}

// Enqueue creates a new queued execution for jobID, optionally overriding
// the job's registered priority.
func (s *Scheduler) Enqueue(jobID string, priorityOverride *models.Priority) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return "", apperrors.New(apperrors.KindNotFound, "scheduler", "Enqueue", "unknown job: "+jobID)
	}
	priority := job.Priority
	if priorityOverride != nil {
		priority = *priorityOverride
	}
	return s.enqueueLocked(jobID, priority, 0), nil
}

// enqueueLocked must be called with s.mu held.
func (s *Scheduler) enqueueLocked(jobID string, priority models.Priority, retryCount int) string {
	execID := uuid.NewString()
	exec := &models.JobExecution{
		ExecutionID: execID,
		JobID:       jobID,
		Status:      models.ExecutionQueued,
		Priority:    priority,
		RetryCount:  retryCount,
	}
	s.executions[execID] = exec
	s.execJob[execID] = jobID
	s.seq++
	s.queue.Push(execID, execID, s.heapKey(priority, s.seq))
	metrics.RecordJobDispatched(priority.String())
	metrics.UpdateSchedulerQueueDepth(s.queue.Len())
	if s.events != nil {
		s.events.Emit("", events.TypeSchedulerJobQueued, events.SeverityInfo, jobID, "job execution queued", map[string]any{
			"execution_id": execID,
			"priority":     priority.String(),
			"retry_count":  retryCount,
		})
	}
	return execID
}

func (s *Scheduler) heapKey(priority models.Priority, seq uint64) time.Time {
	return time.Unix(0, int64(priority)*prioritySlot+int64(seq))
}

// Cancel transitions a queued or running execution to cancelled.
func (s *Scheduler) Cancel(executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[executionID]
	if !ok {
		return apperrors.New(apperrors.KindNotFound, "scheduler", "Cancel", "unknown execution: "+executionID)
	}
	if exec.Status.IsTerminal() {
		return apperrors.New(apperrors.KindValidation, "scheduler", "Cancel", "execution already terminal")
	}

	if exec.Status == models.ExecutionQueued {
		s.queue.Remove(executionID)
		metrics.UpdateSchedulerQueueDepth(s.queue.Len())
	}
	if cancel, ok := s.cancelFns[executionID]; ok {
		cancel()
	}
	now := time.Now().UTC()
	exec.Status = models.ExecutionCancelled
	exec.CompletedAt = &now
	return nil
}

// Status returns a copy of the execution record for executionID.
func (s *Scheduler) Status(executionID string) (models.JobExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.executions[executionID]
	if !ok {
		return models.JobExecution{}, apperrors.New(apperrors.KindNotFound, "scheduler", "Status", "unknown execution: "+executionID)
	}
	return *exec, nil
}

// Serve runs the dispatch loop until ctx is cancelled, implementing
// suture.Service so it can be supervised alongside the rest of the
// process.
func (s *Scheduler) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := s.tick(ctx); err != nil {
			logging.Error().Err(err).Msg("scheduler tick failed")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.errSleep):
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.idleSleep):
		}
	}
}

// tick scans due jobs into the queue, then drains it while capacity and
// gates allow.
func (s *Scheduler) tick(ctx context.Context) error {
	s.scanDue()
	s.drain(ctx)
	return nil
}

func (s *Scheduler) scanDue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for jobID, job := range s.jobs {
		if !job.Enabled || job.NextRun == nil || job.NextRun.After(now) {
			continue
		}
		s.enqueueLocked(jobID, job.Priority, 0)
		next := NextRun(job.Schedule, now)
		job.NextRun = &next
		job.LastRun = &now
	}
}

// drain dispatches queued executions while running < max_concurrent,
// respecting the dependency and resource gates. A dependency
// failure demotes and requeues; a resource failure stops the drain for
// this tick since the budget is globally exhausted.
func (s *Scheduler) drain(ctx context.Context) {
	seen := make(map[string]bool)
	for {
		s.mu.Lock()
		if s.running >= s.maxConcurrent || s.queue.Len() == 0 {
			s.mu.Unlock()
			return
		}
		entry := s.queue.Pop()
		if entry == nil {
			s.mu.Unlock()
			return
		}
		execID := entry.Value
		if seen[execID] {
			// Cycled back to an execution already retried this tick;
			// nothing more will become dispatchable without new input.
			s.queue.Push(execID, execID, entry.Timestamp)
			s.mu.Unlock()
			return
		}
		seen[execID] = true

		exec := s.executions[execID]
		job := s.jobs[s.execJob[execID]]
		if exec == nil || job == nil || exec.Status != models.ExecutionQueued {
			s.mu.Unlock()
			continue
		}

		if !s.dependenciesSatisfiedLocked(job) {
			demoted := exec.Priority.Demote()
			exec.Priority = demoted
			s.seq++
			s.queue.Push(execID, execID, s.heapKey(demoted, s.seq))
			metrics.UpdateSchedulerQueueDepth(s.queue.Len())
			s.mu.Unlock()
			continue
		}

		if !s.tryAllocateLocked(job.ResourceRequirements) {
			s.queue.Push(execID, execID, entry.Timestamp)
			metrics.UpdateSchedulerQueueDepth(s.queue.Len())
			s.mu.Unlock()
			return
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.releaseLocked(job.ResourceRequirements)
			s.queue.Push(execID, execID, entry.Timestamp)
			metrics.UpdateSchedulerQueueDepth(s.queue.Len())
			s.mu.Unlock()
			return
		}

		s.running++
		exec.Status = models.ExecutionRunning
		now := time.Now().UTC()
		exec.StartedAt = &now
		metrics.UpdateSchedulerQueueDepth(s.queue.Len())
		s.mu.Unlock()

		s.dispatch(ctx, *job, exec)
	}
}

func (s *Scheduler) dependenciesSatisfiedLocked(job *models.ScheduledJob) bool {
	for _, dep := range job.DependsOn {
		if !s.completed[dep] {
			return false
		}
	}
	return true
}

func (s *Scheduler) tryAllocateLocked(req models.ResourceRequirements) bool {
	if s.used.CPU+req.CPU > s.budget.CPU {
		return false
	}
	if s.used.MemoryMB+req.MemoryMB > s.budget.MemoryMB {
		return false
	}
	if s.used.ConcurrentJobs+req.ConcurrentJobs > s.budget.ConcurrentJobs {
		return false
	}
	s.used.CPU += req.CPU
	s.used.MemoryMB += req.MemoryMB
	s.used.ConcurrentJobs += req.ConcurrentJobs
	return true
}

func (s *Scheduler) releaseLocked(req models.ResourceRequirements) {
	s.used.CPU -= req.CPU
	s.used.MemoryMB -= req.MemoryMB
	s.used.ConcurrentJobs -= req.ConcurrentJobs
}

// dispatch runs job's handler in its own goroutine, applying the job's
// timeout (or the scheduler default) as a suspension deadline.
func (s *Scheduler) dispatch(ctx context.Context, job models.ScheduledJob, exec *models.JobExecution) {
	timeout := s.defaultTimeout
	if job.TimeoutSeconds != nil {
		timeout = time.Duration(*job.TimeoutSeconds) * time.Second
	}

	hctx := ctx
	var cancel context.CancelFunc = func() {}
	if timeout > 0 {
		hctx, cancel = context.WithTimeout(ctx, timeout)
	}

	s.mu.Lock()
	s.cancelFns[exec.ExecutionID] = cancel
	s.mu.Unlock()

	handler := s.handlers[job.JobID]
	execID := exec.ExecutionID

	go func() {
		defer cancel()
		start := time.Now()
		result, err := handler(hctx, job, *exec)
		duration := time.Since(start)

		timedOut := hctx.Err() == context.DeadlineExceeded
		s.complete(job, execID, result, err, timedOut, duration)
	}()
}

func (s *Scheduler) complete(job models.ScheduledJob, execID string, result any, err error, timedOut bool, duration time.Duration) {
	s.mu.Lock()
	exec, ok := s.executions[execID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.cancelFns, execID)
	s.releaseLocked(job.ResourceRequirements)
	s.running--

	if exec.Status == models.ExecutionCancelled {
		s.mu.Unlock()
		metrics.RecordJobExecution(job.Name, string(models.ExecutionCancelled), duration)
		return
	}

	now := time.Now().UTC()
	exec.CompletedAt = &now

	switch {
	case timedOut:
		exec.Status = models.ExecutionFailed
		exec.ErrorMessage = fmt.Sprintf("Job timed out after %.0fs", duration.Seconds())
	case err != nil:
		exec.Status = models.ExecutionFailed
		exec.ErrorMessage = err.Error()
	default:
		exec.Status = models.ExecutionCompleted
		exec.Result = result
		s.completed[job.JobID] = true
	}

	status := exec.Status
	retryCount := exec.RetryCount
	maxRetries := job.MaxRetries
	var retryExecID string
	if status == models.ExecutionFailed && retryCount < maxRetries {
		retryExecID = s.enqueueLocked(job.JobID, exec.Priority.Demote(), retryCount+1)
	}
	s.mu.Unlock()

	metrics.RecordJobExecution(job.Name, string(status), duration)
	if retryExecID != "" {
		metrics.RecordJobRetried(job.Name)
	}

	if s.events == nil {
		return
	}
	switch status {
	case models.ExecutionFailed:
		sev := events.SeverityWarning
		if retryExecID == "" {
			sev = events.SeverityError
		}
		s.events.Emit("", events.TypeSchedulerJobFailed, sev, job.JobID, "job execution failed", map[string]any{
			"execution_id": execID,
			"error":        exec.ErrorMessage,
			"retry_count":  retryCount,
		})
		if retryExecID != "" {
			s.events.Emit("", events.TypeSchedulerJobRetried, events.SeverityInfo, job.JobID, "job execution requeued for retry", map[string]any{
				"retry_execution_id": retryExecID,
			})
		}
	case models.ExecutionCompleted:
		s.events.Emit("", events.TypeSchedulerJobCompleted, events.SeverityInfo, job.JobID, "job execution completed", map[string]any{
			"execution_id": execID,
			"duration_ms":  duration.Milliseconds(),
		})
	}
}

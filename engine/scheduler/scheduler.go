// Package scheduler runs the background job queue: a NATS-subject-per-kind
// queue with per-kind bounded worker pools, plus cron-style schedules for
// recurring jobs like process_backlog and pattern detection re-runs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/nats-io/nats.go"

	"github.com/jarvis-ai/jarvis/pkg/natsutil"
)

// JobKind identifies what a Job does.
type JobKind string

const (
	JobProcessCapture    JobKind = "process_capture"
	JobProcessBacklog    JobKind = "process_backlog"
	JobCalendarSync      JobKind = "calendar_sync"
	JobEmailSync         JobKind = "email_sync"
	JobPatternDetection  JobKind = "pattern_detection"
	JobReclassifyEntities JobKind = "reclassify_entities"
)

// subjectPrefix namespaces job-queue subjects from the ingest pipeline's.
const subjectPrefix = "jarvis.jobs."

// Subject returns the NATS subject a kind's jobs are published/consumed on.
func Subject(kind JobKind) string { return subjectPrefix + string(kind) }

// Job is one unit of background work.
type Job struct {
	Kind    JobKind           `json:"kind"`
	ID      string            `json:"id"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Handler processes one job. An error causes the job to be logged and
// dropped; the scheduler itself does not retry (job kinds that need retry
// semantics, like ingest, use engine/ingest's own DLQ).
type Handler func(ctx context.Context, job Job) error

// WorkerConfig bounds one job kind's concurrency and per-job deadline.
// OCR-class jobs (process_capture) should use a lower MaxJobs than
// I/O-class jobs (calendar_sync, email_sync).
type WorkerConfig struct {
	MaxJobs    int
	JobTimeout time.Duration
}

// DefaultWorkerConfig is used for any kind registered without an explicit
// WorkerConfig.
var DefaultWorkerConfig = WorkerConfig{MaxJobs: 4, JobTimeout: 30 * time.Second}

type registration struct {
	handler Handler
	config  WorkerConfig
	sem     chan struct{}
}

// Scheduler dispatches jobs arriving on NATS subjects to per-kind bounded
// worker pools, and can publish jobs itself on a cron schedule.
type Scheduler struct {
	nc     *nats.Conn
	logger *slog.Logger

	mu   sync.Mutex
	regs map[JobKind]*registration
	subs []*nats.Subscription
}

// New creates a Scheduler bound to an existing NATS connection.
func New(nc *nats.Conn, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{nc: nc, logger: logger, regs: map[JobKind]*registration{}}
}

// Register binds a Handler to a job kind and starts consuming its subject.
// Calling Register twice for the same kind replaces the prior registration
// (the old subscription is drained, not stopped mid-flight).
func (s *Scheduler) Register(kind JobKind, handler Handler, cfg WorkerConfig) error {
	if cfg.MaxJobs <= 0 || cfg.JobTimeout <= 0 {
		cfg = DefaultWorkerConfig
	}
	reg := &registration{handler: handler, config: cfg, sem: make(chan struct{}, cfg.MaxJobs)}

	s.mu.Lock()
	s.regs[kind] = reg
	s.mu.Unlock()

	sub, err := natsutil.Subscribe(s.nc, Subject(kind), func(ctx context.Context, job Job) {
		s.dispatch(ctx, kind, reg, job)
	})
	if err != nil {
		return fmt.Errorf("scheduler: register %s: %w", kind, err)
	}

	s.mu.Lock()
	kept := s.subs[:0]
	for _, old := range s.subs {
		if old.Subject == Subject(kind) {
			_ = old.Drain()
			continue
		}
		kept = append(kept, old)
	}
	s.subs = append(kept, sub)
	s.mu.Unlock()
	return nil
}

// dispatch runs job through reg's handler, bounded by reg's semaphore and
// deadline. It never lets a panicking handler take down the scheduler.
func (s *Scheduler) dispatch(ctx context.Context, kind JobKind, reg *registration, job Job) {
	reg.sem <- struct{}{}
	defer func() { <-reg.sem }()

	jobCtx, cancel := context.WithTimeout(ctx, reg.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler: job handler panicked", "kind", kind, "job_id", job.ID, "panic", r)
		}
	}()

	if err := reg.handler(jobCtx, job); err != nil {
		s.logger.Error("scheduler: job failed", "kind", kind, "job_id", job.ID, "err", err)
		return
	}
	s.logger.Info("scheduler: job completed", "kind", kind, "job_id", job.ID)
}

// Enqueue publishes a job onto its kind's subject.
func (s *Scheduler) Enqueue(ctx context.Context, job Job) error {
	return natsutil.Publish(ctx, s.nc, Subject(job.Kind), job)
}

// Stop unsubscribes from every registered kind's subject.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}

// CronSchedule pairs a job kind with a standard 5-field cron expression
// (evaluated in the scheduler's local time).
type CronSchedule struct {
	Kind JobKind
	Expr string
	// NewJob, if set, builds the job payload for each firing; otherwise an
	// empty Job of Kind is enqueued.
	NewJob func(at time.Time) Job
}

// RunCron polls schedules every tick and enqueues a job for any schedule
// due at that tick, until ctx is cancelled. It is cooperative: the only
// suspension point per iteration is the tick sleep.
func (s *Scheduler) RunCron(ctx context.Context, schedules []CronSchedule, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, job := range dueJobs(schedules, now, s.logger) {
				if err := s.Enqueue(ctx, job); err != nil {
					s.logger.Error("scheduler: cron enqueue failed", "kind", job.Kind, "err", err)
				}
			}
		}
	}
}

// dueJobs evaluates each schedule's cron expression against now and
// returns the jobs that should fire, in schedule order.
func dueJobs(schedules []CronSchedule, now time.Time, logger *slog.Logger) []Job {
	var jobs []Job
	for _, sched := range schedules {
		due, err := gronx.IsDue(sched.Expr, now)
		if err != nil {
			if logger != nil {
				logger.Warn("scheduler: invalid cron expression", "kind", sched.Kind, "expr", sched.Expr, "err", err)
			}
			continue
		}
		if !due {
			continue
		}
		job := Job{Kind: sched.Kind}
		if sched.NewJob != nil {
			job = sched.NewJob(now)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrTickInProgress is returned when a manual trigger collides with a run
// already executing.
var ErrTickInProgress = errors.New("ingestion tick already in progress")

// State is a snapshot of scheduler health for the debug endpoint.
type State struct {
	Running    bool       `json:"running"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
}

// Scheduler invokes the ingestion job on a fixed interval. A single-slot
// guard ensures at most one run executes at a time: a tick that fires while
// the previous run is still going is skipped, not queued.
type Scheduler struct {
	job      *Job
	interval time.Duration
	logger   *zap.Logger
	onTick   func(Summary)

	busy atomic.Bool

	mu         sync.Mutex
	lastRun    time.Time
	lastStatus string
}

// NewScheduler builds the scheduler; it does nothing until Run is called.
func NewScheduler(job *Job, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		job:      job,
		interval: interval,
		logger:   logger,
	}
}

// SetOnTick registers a callback invoked after every completed run. Must be
// called before Run.
func (s *Scheduler) SetOnTick(fn func(Summary)) {
	s.onTick = fn
}

// Run blocks, firing the job every interval until the context is cancelled.
// An in-flight run finishes its store writes; idempotent upserts make an
// abrupt cancellation safe either way.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.TriggerNow(ctx); errors.Is(err, ErrTickInProgress) {
				s.logger.Warn("previous tick still running, skipping")
			}
		}
	}
}

// TriggerNow runs the job immediately if no run is in flight, returning its
// summary. Shared guard with the ticker path, so manual triggers cannot stack
// writers either.
func (s *Scheduler) TriggerNow(ctx context.Context) (*Summary, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrTickInProgress
	}
	defer s.busy.Store(false)

	summary := s.job.RunOnce(ctx)

	status := "success"
	if summary.Failures > 0 {
		status = "partial"
	}
	if summary.GridRows == 0 && summary.PriceRows == 0 && summary.Failures > 0 {
		status = "error"
	}

	s.mu.Lock()
	s.lastRun = summary.StartedAt
	s.lastStatus = status
	s.mu.Unlock()

	if s.onTick != nil {
		s.onTick(summary)
	}
	return &summary, nil
}

// State reports last-run bookkeeping.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Running:    s.busy.Load(),
		LastStatus: s.lastStatus,
	}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		state.LastRun = &t
	}
	return state
}

// Package scheduler runs reconciliation cycles on a fixed interval and on
// demand, never more than one at a time.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"wedding-booking/internal/usecase"

	"go.uber.org/zap"
)

var (
	ErrNotRunning = errors.New("scheduler is not running")
	ErrBusy       = errors.New("reconciliation cycle already in progress")
)

type CycleRunner interface {
	RunCycle(ctx context.Context) ([]usecase.CheckReport, error)
	// Drain waits for background work started by earlier cycles.
	Drain()
}

// Cycle is the record of one finished run.
type Cycle struct {
	Trigger    string
	StartedAt  time.Time
	FinishedAt time.Time
	Reports    []usecase.CheckReport
	Err        error
}

type Status struct {
	Running   bool
	Busy      bool
	Interval  time.Duration
	LastCycle *Cycle
}

type Scheduler struct {
	runner     CycleRunner
	interval   time.Duration
	log        *zap.Logger
	runOnStart bool

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	cycleCtx context.Context
	last     *Cycle

	busy   atomic.Bool
	cycles sync.WaitGroup
}

func New(runner CycleRunner, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		log:        log.With(zap.String("component", "scheduler")),
		runOnStart: true,
	}
}

// Start runs a first cycle in the background and then one per interval.
// It returns false if already running.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		s.log.Warn("Scheduler already running, ignoring start")
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	// Cycles outlive the loop so Stop can let an in-flight one finish.
	s.cycleCtx = context.WithoutCancel(ctx)

	go s.loop(loopCtx, s.done)
	s.mu.Unlock()

	s.log.Info("Scheduler started", zap.Duration("interval", s.interval))

	if s.runOnStart {
		_ = s.trigger("startup")
	}
	return true
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.trigger("interval")
		}
	}
}

// TriggerNow starts a cycle in the background unless one is in progress.
func (s *Scheduler) TriggerNow() error {
	return s.trigger("manual")
}

func (s *Scheduler) trigger(source string) error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNotRunning
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.log.Warn("Previous reconciliation cycle still running, skipping",
			zap.String("trigger", source))
		return ErrBusy
	}
	s.cycles.Add(1)
	ctx := s.cycleCtx
	s.mu.Unlock()

	go s.run(ctx, source)
	return nil
}

func (s *Scheduler) run(ctx context.Context, source string) {
	cycle := &Cycle{Trigger: source, StartedAt: time.Now()}

	defer s.cycles.Done()
	defer s.busy.Store(false)
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("PANIC recovered in reconciliation cycle",
				zap.Any("error", r),
				zap.Stack("stack"),
			)
			cycle.Err = errors.New("reconciliation cycle panicked")
		}
		cycle.FinishedAt = time.Now()

		s.mu.Lock()
		s.last = cycle
		s.mu.Unlock()
	}()

	s.log.Info("Reconciliation cycle started", zap.String("trigger", source))

	cycle.Reports, cycle.Err = s.runner.RunCycle(ctx)
	if cycle.Err != nil {
		s.log.Error("Reconciliation cycle finished with errors",
			zap.String("trigger", source),
			zap.Error(cycle.Err),
		)
		return
	}

	for _, r := range cycle.Reports {
		s.log.Info("Reconciliation check done",
			zap.String("check", r.Check),
			zap.Int("matched", r.Matched),
			zap.Int("processed", r.Processed),
			zap.Int("skipped", r.Skipped),
			zap.Int("failed", r.Failed),
			zap.Duration("duration", r.Duration),
		)
	}
}

// Stop ends the loop, waits for an in-flight cycle and its notifications,
// and leaves the scheduler ready to Start again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	s.cycles.Wait()
	s.runner.Drain()

	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:  s.cancel != nil,
		Busy:     s.busy.Load(),
		Interval: s.interval,
	}
	if s.last != nil {
		last := *s.last
		st.LastCycle = &last
	}
	return st
}

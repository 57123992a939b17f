// Package scheduler owns named triggers and fires jobs on schedule, with
// misfire recovery and a non-overlap guarantee per job name.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Status is the scheduler's lifecycle state.
type Status string

const (
	StatusStandby Status = "STANDBY"
	StatusRunning Status = "RUNNING"
	StatusDown    Status = "DOWN"
	StatusUnknown Status = "UNKNOWN"
)

// Job is one unit of recurring work. Run is never invoked concurrently for
// the same registered name, so implementations need no reentrancy handling.
type Job interface {
	Run(ctx context.Context) error
}

// Config tunes the scheduler. Zero values get sensible defaults.
type Config struct {
	// Tick is the resolution of the firing loop.
	Tick time.Duration
	// Workers bounds how many jobs may execute at once.
	Workers int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

type entry struct {
	jobName     string
	groupName   string
	triggerName string
	job         Job
	trigger     Trigger
	next        time.Time
	running     bool
	pending     int
}

type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger
	now     func() time.Time
	tick    time.Duration
	sem     chan struct{}
	wg      sync.WaitGroup

	state    atomic.Value // Status
	active   atomic.Int64
	executed atomic.Int64

	runCtx context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Tick == 0 {
		cfg.Tick = time.Second
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Scheduler{
		entries: make(map[string]*entry),
		logger:  logger,
		now:     cfg.Now,
		tick:    cfg.Tick,
		sem:     make(chan struct{}, cfg.Workers),
	}
	s.state.Store(StatusStandby)
	return s
}

// Schedule registers a job under jobName with its trigger. The trigger is
// addressable as "<jobName>-trigger" for next-fire-time introspection.
// Registration after Start is an error, as is a duplicate name.
func (s *Scheduler) Schedule(jobName, groupName string, job Job, trigger Trigger) error {
	if job == nil || trigger == nil {
		return fmt.Errorf("schedule %s: job and trigger are required", jobName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status() != StatusStandby {
		return fmt.Errorf("schedule %s: scheduler already started", jobName)
	}
	if _, dup := s.entries[jobName]; dup {
		return fmt.Errorf("schedule %s: job already registered", jobName)
	}

	s.entries[jobName] = &entry{
		jobName:     jobName,
		groupName:   groupName,
		triggerName: jobName + "-trigger",
		job:         job,
		trigger:     trigger,
		next:        trigger.First(s.now()),
	}
	return nil
}

// Start launches the firing loop. Jobs receive a context derived from ctx;
// it is not canceled on Shutdown, running jobs get to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = context.WithoutCancel(ctx)
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state.Store(StatusRunning)
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.fireDue()
			}
		}
	}()
}

func (s *Scheduler) fireDue() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if now.Before(e.next) {
			continue
		}

		// Advance the trigger past now first so a long outage fires once,
		// not once per missed interval.
		switch e.trigger.Misfire() {
		case FireAndProceed:
			e.next = e.trigger.Next(now)
		default:
			next := e.trigger.Next(e.next)
			for !next.After(now) {
				next = e.trigger.Next(next)
			}
			e.next = next
		}

		s.fireLocked(e)
	}
}

// fireLocked dispatches or queues one fire for e. Callers hold s.mu.
func (s *Scheduler) fireLocked(e *entry) {
	if e.running {
		if e.trigger.QueueOverlap() {
			e.pending++
		} else {
			s.logger.Warn("dropping fire, job still running", "job", e.jobName)
		}
		return
	}
	e.running = true
	s.dispatch(e)
}

func (s *Scheduler) dispatch(e *entry) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		for {
			s.active.Add(1)
			start := time.Now()
			err := e.job.Run(s.runCtx)
			s.active.Add(-1)
			s.executed.Add(1)

			if err != nil {
				s.logger.Error("job run failed", "job", e.jobName, "group", e.groupName, "duration", time.Since(start), "error", err)
			} else {
				s.logger.Info("job run finished", "job", e.jobName, "duration", time.Since(start))
			}

			s.mu.Lock()
			if e.pending > 0 {
				e.pending--
				s.mu.Unlock()
				continue
			}
			e.running = false
			s.mu.Unlock()
			return
		}
	}()
}

// TriggerNow fires the named job out of schedule. The regular cadence is
// unaffected; the non-overlap guarantee still applies.
func (s *Scheduler) TriggerNow(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status() != StatusRunning {
		return fmt.Errorf("trigger %s: scheduler is not running", jobName)
	}
	e, ok := s.entries[jobName]
	if !ok {
		return fmt.Errorf("trigger %s: unknown job", jobName)
	}
	s.fireLocked(e)
	return nil
}

func (s *Scheduler) Status() Status {
	if v, ok := s.state.Load().(Status); ok {
		return v
	}
	return StatusUnknown
}

// ActiveJobCount returns how many jobs are executing right now.
func (s *Scheduler) ActiveJobCount() int64 { return s.active.Load() }

// TotalExecutedCount returns how many job runs have completed since start.
func (s *Scheduler) TotalExecutedCount() int64 { return s.executed.Load() }

// NextFireTime returns the next fire time of the named trigger.
func (s *Scheduler) NextFireTime(triggerName string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.triggerName == triggerName {
			return e.next, true
		}
	}
	return time.Time{}, false
}

// TriggerNames lists the registered trigger names.
func (s *Scheduler) TriggerNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.triggerName)
	}
	return names
}

// Shutdown stops firing and blocks until in-flight jobs finish or ctx
// expires, whichever comes first.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.state.Store(StatusDown)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown grace period elapsed: %w", ctx.Err())
	}
}

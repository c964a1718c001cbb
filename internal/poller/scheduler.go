package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which of the two per-cycle requests a result belongs to.
type Kind string

const (
	KindReadings Kind = "readings"
	KindWater    Kind = "water"
)

// State is a snapshot of the scheduler's view of the poll loop.
type State struct {
	// Interval is the time between poll cycles.
	Interval time.Duration

	// RangeSeconds is the trailing window requested from /reading.
	RangeSeconds int64

	// NextPollAt is when the next cycle is due.
	NextPollAt time.Time

	// Cycle is the id of the most recently issued cycle. Zero before the
	// first cycle.
	Cycle uint64
}

// View receives parsed data from the scheduler's loop goroutine.
//
// Calls are never concurrent with each other.
type View interface {
	ApplyReadings(readings []Reading)
	ApplyWaterStatus(status WaterStatus)
	ApplyCountdown(text string)
	ApplySchedule(state State)
}

// Observer receives instrumentation events from the scheduler.
// Implementations must be safe for concurrent use.
type Observer interface {
	CycleStarted(cycle uint64, rangeSeconds int64)
	RangeChanged(rangeSeconds int64)
	FetchCompleted(kind Kind, latency time.Duration, err error)
	ResponseDiscarded(kind Kind)
}

type nopObserver struct{}

func (nopObserver) CycleStarted(uint64, int64) {}
func (nopObserver) RangeChanged(int64) {}
func (nopObserver) FetchCompleted(Kind, time.Duration, error) {}
func (nopObserver) ResponseDiscarded(Kind) {}

// ErrInvalidRange is returned by [Scheduler.Reconfigure] for non-positive ranges.
var ErrInvalidRange = errors.New("range must be a positive number of seconds")

// result carries a completed fetch back to the loop goroutine.
type result struct {
	kind     Kind
	cycle    uint64
	readings []Reading
	water    WaterStatus
	err      error
}

// Config holds the scheduler's construction parameters.
type Config struct {
	// Interval is the time between poll cycles. Must be positive.
	Interval time.Duration

	// RangeSeconds is the initial trailing window. Must be positive.
	RangeSeconds int64

	// Clock is the time source. Defaults to [RealClock].
	Clock Clock

	// Observer receives instrumentation events. Optional.
	Observer Observer

	// Logger receives scheduler events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Scheduler drives the poll loop.
//
// All scheduling state (the repeating trigger, the countdown, the cycle
// counter and the last-applied markers) is owned by a single loop goroutine
// started by [Scheduler.Start]. Fetches run on their own goroutines and hand
// their results back to the loop, where each result is applied only if it was
// issued after the last applied result of the same kind. Responses therefore
// win by issue order, not completion order.
//
// Start, Stop, Reconfigure and State are safe for concurrent use.
type Scheduler struct {
	fetcher   Fetcher
	view      View
	clock     Clock
	observer  Observer
	logger    *slog.Logger
	countdown *Countdown

	results chan result

	// rangeQueued holds at most one pending reconfiguration; the range itself
	// is pendingRange so a newer request replaces a queued one
	rangeQueued chan struct{}

	// loop-owned
	trigger Ticker
	applied map[Kind]uint64

	// dispatch runs a fetch; replaced in tests for deterministic delivery
	dispatch func(func())

	mu           sync.Mutex
	state        State
	pendingRange int64
	started      bool
	stopped      bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	inflight     sync.WaitGroup
}

// NewScheduler creates a [Scheduler]. It does not poll until [Scheduler.Start].
func NewScheduler(fetcher Fetcher, view View, cfg Config) (*Scheduler, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if view == nil {
		return nil, errors.New("view is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.RangeSeconds <= 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidRange, cfg.RangeSeconds)
	}
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Scheduler{
		fetcher:     fetcher,
		view:        view,
		clock:       cfg.Clock,
		observer:    cfg.Observer,
		logger:      cfg.Logger,
		results:     make(chan result, 16),
		rangeQueued: make(chan struct{}, 1),
		applied:     make(map[Kind]uint64, 2),
		state: State{
			Interval:     cfg.Interval,
			RangeSeconds: cfg.RangeSeconds,
		},
	}
	s.countdown = NewCountdown(cfg.Clock, func(text string) {
		s.safeApply("countdown", func() { s.view.ApplyCountdown(text) })
	})
	s.dispatch = func(f func()) {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			f()
		}()
	}
	return s, nil
}

// State returns a snapshot of the scheduler state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start begins the poll loop in a background goroutine.
//
// The first cycle is issued immediately. Start is idempotent; calls after the
// first, or after Stop, are no-ops. If ctx is nil, context.Background() is used.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	if ctx == nil {
		ctx = context.Background()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	rangeSeconds := s.state.RangeSeconds
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.countdown.Stop()
		defer s.stopTrigger()

		s.start(loopCtx, rangeSeconds)

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-s.triggerC():
				s.poll(loopCtx)
			case <-s.countdown.C():
				s.countdown.Tick()
			case <-s.rangeQueued:
				s.mu.Lock()
				rangeSeconds := s.pendingRange
				s.mu.Unlock()
				s.reconfigure(loopCtx, rangeSeconds)
			case res := <-s.results:
				s.apply(res)
			}
		}
	}()
}

// Stop halts the loop and waits for it and all in-flight fetches to finish.
//
// In-flight requests are cancelled through their context. Stop is idempotent
// and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.inflight.Wait()
}

// Reconfigure changes the requested range.
//
// On a running scheduler the live trigger is cancelled and the loop restarts
// with the same interval, issuing one immediate cycle with the new range.
// Before Start the new range simply becomes the initial range. After Stop the
// call is a no-op.
//
// Reconfigure never blocks on the loop, so it may be called from view and
// update callbacks. Requests made before the loop picks them up coalesce:
// only the most recent range is applied.
func (s *Scheduler) Reconfigure(rangeSeconds int64) error {
	if rangeSeconds <= 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidRange, rangeSeconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.stopped:
		return nil
	case !s.started:
		s.state.RangeSeconds = rangeSeconds
		return nil
	}

	s.pendingRange = rangeSeconds
	select {
	case s.rangeQueued <- struct{}{}:
	default:
		// already queued; the loop will read the new pendingRange
	}
	return nil
}

// start cancels any live trigger, records rangeSeconds, arms a new trigger,
// and issues an immediate cycle. Only called on the loop goroutine.
func (s *Scheduler) start(ctx context.Context, rangeSeconds int64) {
	s.stopTrigger()

	s.mu.Lock()
	s.state.RangeSeconds = rangeSeconds
	interval := s.state.Interval
	s.mu.Unlock()

	s.trigger = s.clock.NewTicker(interval)
	s.poll(ctx)
}

func (s *Scheduler) reconfigure(ctx context.Context, rangeSeconds int64) {
	s.logger.Info("range changed", "range_seconds", rangeSeconds)
	s.observer.RangeChanged(rangeSeconds)
	s.start(ctx, rangeSeconds)
}

// poll issues one cycle: next-poll bookkeeping, countdown re-arm, and both
// fetches in parallel.
func (s *Scheduler) poll(ctx context.Context) {
	s.mu.Lock()
	s.state.Cycle++
	s.state.NextPollAt = s.clock.Now().Add(s.state.Interval)
	state := s.state
	s.mu.Unlock()

	s.observer.CycleStarted(state.Cycle, state.RangeSeconds)
	s.logger.Debug("poll cycle started",
		"cycle", state.Cycle,
		"range_seconds", state.RangeSeconds,
		"next_poll_at", state.NextPollAt,
	)

	s.safeApply("schedule", func() { s.view.ApplySchedule(state) })
	s.countdown.Arm(state.NextPollAt)

	cycle := state.Cycle
	rangeSeconds := state.RangeSeconds

	s.dispatch(func() {
		start := s.clock.Now()
		readings, err := s.fetcher.FetchReadings(ctx, rangeSeconds)
		s.observer.FetchCompleted(KindReadings, s.clock.Now().Sub(start), err)
		s.deliver(ctx, result{kind: KindReadings, cycle: cycle, readings: readings, err: err})
	})
	s.dispatch(func() {
		start := s.clock.Now()
		status, err := s.fetcher.FetchWaterStatus(ctx)
		s.observer.FetchCompleted(KindWater, s.clock.Now().Sub(start), err)
		s.deliver(ctx, result{kind: KindWater, cycle: cycle, water: status, err: err})
	})
}

func (s *Scheduler) deliver(ctx context.Context, res result) {
	select {
	case s.results <- res:
	case <-ctx.Done():
	}
}

// apply hands a completed fetch to the view unless it failed or a later
// cycle's result of the same kind has already been applied.
func (s *Scheduler) apply(res result) {
	if res.err != nil {
		s.logger.Warn("fetch failed",
			"kind", res.kind,
			"cycle", res.cycle,
			"error", res.err.Error(),
		)
		return
	}

	if res.cycle <= s.applied[res.kind] {
		s.logger.Debug("discarding stale response",
			"kind", res.kind,
			"cycle", res.cycle,
			"applied_cycle", s.applied[res.kind],
		)
		s.observer.ResponseDiscarded(res.kind)
		return
	}
	s.applied[res.kind] = res.cycle

	switch res.kind {
	case KindReadings:
		s.safeApply(string(res.kind), func() { s.view.ApplyReadings(res.readings) })
		s.logger.Info("refreshed readings", "cycle", res.cycle, "count", len(res.readings))
	case KindWater:
		s.safeApply(string(res.kind), func() { s.view.ApplyWaterStatus(res.water) })
		s.logger.Info("refreshed last watered", "cycle", res.cycle)
	}
}

// safeApply calls into the view with panic recovery so that a misbehaving
// sink cannot stop the poll loop. The stack is logged under a correlation id.
func (s *Scheduler) safeApply(what string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("view update panicked",
				"correlation_id", uuid.NewString(),
				"update", what,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	f()
}

func (s *Scheduler) triggerC() <-chan time.Time {
	if s.trigger == nil {
		return nil
	}
	return s.trigger.C()
}

func (s *Scheduler) stopTrigger() {
	if s.trigger != nil {
		s.trigger.Stop()
		s.trigger = nil
	}
}

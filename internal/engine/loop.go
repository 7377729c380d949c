package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"eve-arbscan/internal/logger"
	"eve-arbscan/internal/metrics"
)

// Job is one strategy bound to its parameters.
type Job struct {
	Strategy Strategy
	Hub      Hub
	Scan     func(ctx context.Context, progress func(string)) []Opportunity
}

// SnapshotWriter persists a non-empty cycle and returns where it went.
type SnapshotWriter interface {
	WriteSnapshot(c *Cycle) (string, error)
}

// CycleSink receives every completed, non-cancelled cycle.
type CycleSink interface {
	HandleCycle(ctx context.Context, c *Cycle) error
}

// LoopOptions controls repetition.
type LoopOptions struct {
	Repeat   bool
	Interval time.Duration
}

// Loop drives repeated scan cycles until stopped.
type Loop struct {
	Snapshots SnapshotWriter
	Sinks     []CycleSink
	Observer  Observer
	Tick      time.Duration

	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	mu          sync.Mutex
	cancel      context.CancelFunc
	stopPending bool
	state       atomic.Int32
}

// NewLoop creates a loop with a one second wait tick.
func NewLoop(snapshots SnapshotWriter, observer Observer, sinks ...CycleSink) *Loop {
	return &Loop{
		Snapshots: snapshots,
		Sinks:     sinks,
		Observer:  observer,
		Tick:      time.Second,
		after:     time.After,
		now:       time.Now,
	}
}

// State returns the current loop state.
func (l *Loop) State() State { return State(l.state.Load()) }

// Stop requests the running loop to stop. Safe to call at any time and
// more than once. A Stop with no run in progress applies to the next Run.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		return
	}
	l.stopPending = true
}

// Run executes job once, or repeatedly with opts.Interval between cycles,
// until ctx is done or Stop is called. It returns the terminal state:
// StateIdle after a single run, StateStopped after cancellation.
func (l *Loop) Run(ctx context.Context, job Job, opts LoopOptions) State {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	l.mu.Lock()
	l.cancel = cancel
	pending := l.stopPending
	l.stopPending = false
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.cancel = nil
		l.mu.Unlock()
	}()
	if pending {
		return l.stopped(0, nil, "Stopped.")
	}

	runID := uuid.New()
	for number := 1; ; number++ {
		l.state.Store(int32(StateRunningScan))
		cycle := &Cycle{
			RunID:     runID,
			ID:        uuid.New(),
			Number:    number,
			Strategy:  job.Strategy,
			Hub:       job.Hub,
			StartedAt: l.clock(),
		}
		l.emit(Event{State: StateRunningScan, Cycle: number,
			Message: fmt.Sprintf("Cycle #%d: scanning %s (%s)...", number, job.Hub.Name, job.Strategy)})

		opps := job.Scan(runCtx, func(msg string) {
			l.emit(Event{State: StateRunningScan, Cycle: number, Message: msg})
		})
		SortByDailyProfit(opps)
		cycle.Opportunities = opps
		cycle.Duration = l.clock().Sub(cycle.StartedAt)
		metrics.CycleDuration.WithLabelValues(string(job.Strategy)).Observe(cycle.Duration.Seconds())

		if runCtx.Err() != nil {
			cycle.Cancelled = true
			metrics.Cycles.WithLabelValues(string(job.Strategy), "cancelled").Inc()
			return l.stopped(number, cycle, fmt.Sprintf("Scan interrupted by user (%d opportunities kept).", len(opps)))
		}

		l.complete(ctx, cycle)

		if !opts.Repeat {
			l.state.Store(int32(StateIdle))
			return StateIdle
		}
		l.state.Store(int32(StateAwaitingInterval))
		if !l.wait(runCtx, number, opts.Interval) {
			return l.stopped(number, nil, "Stopped.")
		}
	}
}

// complete persists and publishes a finished cycle.
func (l *Loop) complete(ctx context.Context, cycle *Cycle) {
	strategy := string(cycle.Strategy)
	metrics.Opportunities.WithLabelValues(strategy).Set(float64(len(cycle.Opportunities)))

	var msg string
	if len(cycle.Opportunities) == 0 {
		metrics.Cycles.WithLabelValues(strategy, "empty").Inc()
		msg = fmt.Sprintf("Cycle #%d: nothing found.", cycle.Number)
	} else {
		metrics.Cycles.WithLabelValues(strategy, "found").Inc()
		if l.Snapshots != nil {
			path, err := l.Snapshots.WriteSnapshot(cycle)
			if err != nil {
				logger.Error("LOOP", fmt.Sprintf("snapshot for cycle #%d: %v", cycle.Number, err))
			} else {
				cycle.SnapshotPath = path
			}
		}
		msg = fmt.Sprintf("Cycle #%d: %d opportunities.", cycle.Number, len(cycle.Opportunities))
		if cycle.SnapshotPath != "" {
			msg += " Saved: " + cycle.SnapshotPath
		}
	}

	for _, sink := range l.Sinks {
		if err := sink.HandleCycle(ctx, cycle); err != nil {
			logger.Warn("LOOP", fmt.Sprintf("cycle #%d sink: %v", cycle.Number, err))
		}
	}
	l.emit(Event{State: StateRunningScan, Cycle: cycle.Number, Message: msg, Result: cycle})
}

// wait sleeps the interval in ticks, reporting the remaining time on each
// one. It always waits at least one tick. It returns false as soon as a tick observes cancellation.
func (l *Loop) wait(ctx context.Context, number int, interval time.Duration) bool {
	tick := l.Tick
	if tick <= 0 {
		tick = time.Second
	}
	ticks := int(interval / tick)
	if ticks < 1 {
		ticks = 1
	}
	for i := 0; i < ticks; i++ {
		if ctx.Err() != nil {
			return false
		}
		remaining := time.Duration(ticks-i) * tick
		l.emit(Event{State: StateAwaitingInterval, Cycle: number, Remaining: remaining,
			Message: fmt.Sprintf("Next scan in %s...", remaining)})
		select {
		case <-ctx.Done():
			return false
		case <-l.afterFn()(tick):
		}
	}
	return ctx.Err() == nil
}

func (l *Loop) stopped(number int, cycle *Cycle, msg string) State {
	l.state.Store(int32(StateStopped))
	l.emit(Event{State: StateStopped, Cycle: number, Message: msg, Result: cycle})
	logger.Info("LOOP", msg)
	return StateStopped
}

func (l *Loop) emit(e Event) {
	if l.Observer == nil {
		return
	}
	e.At = l.clock()
	l.Observer.Observe(e)
}

func (l *Loop) clock() time.Time {
	if l.now == nil {
		return time.Now()
	}
	return l.now()
}

func (l *Loop) afterFn() func(time.Duration) <-chan time.Time {
	if l.after == nil {
		return time.After
	}
	return l.after
}

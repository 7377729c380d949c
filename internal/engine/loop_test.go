package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(state State) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.State == state {
			n++
		}
	}
	return n
}

func (r *recorder) results() []*Cycle {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Cycle
	for _, e := range r.events {
		if e.Result != nil {
			out = append(out, e.Result)
		}
	}
	return out
}

type fakeSnapshots struct {
	written []*Cycle
	err     error
}

func (f *fakeSnapshots) WriteSnapshot(c *Cycle) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.written = append(f.written, c)
	return "reports/" + c.Strategy.Prefix() + ".csv", nil
}

type fakeSink struct {
	cycles []*Cycle
}

func (f *fakeSink) HandleCycle(_ context.Context, c *Cycle) error {
	f.cycles = append(f.cycles, c)
	return errors.New("sink down")
}

// readyAfter fires immediately.
func readyAfter(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func staticJob(opps ...Opportunity) Job {
	return Job{
		Strategy: StrategyVelocity,
		Hub:      Jita,
		Scan: func(context.Context, func(string)) []Opportunity {
			return append([]Opportunity(nil), opps...)
		},
	}
}

func TestLoop_SingleRunSortsAndPersists(t *testing.T) {
	rec := &recorder{}
	snaps := &fakeSnapshots{}
	sink := &fakeSink{}
	l := NewLoop(snaps, rec, sink)

	state := l.Run(context.Background(), staticJob(
		Opportunity{TypeID: 1, DailyProfit: 10},
		Opportunity{TypeID: 2, DailyProfit: 30},
		Opportunity{TypeID: 3, DailyProfit: 20},
	), LoopOptions{})

	assert.Equal(t, StateIdle, state)
	assert.Equal(t, StateIdle, l.State())
	require.Len(t, snaps.written, 1)
	c := snaps.written[0]
	assert.Equal(t, 1, c.Number)
	assert.Equal(t, []int32{2, 3, 1}, []int32{c.Opportunities[0].TypeID, c.Opportunities[1].TypeID, c.Opportunities[2].TypeID})
	assert.Equal(t, "reports/TRADE.csv", c.SnapshotPath)
	assert.Equal(t, 30.0, c.TopDailyProfit())
	assert.Equal(t, 60.0, c.TotalDailyProfit())

	// A failing sink does not fail the cycle.
	require.Len(t, sink.cycles, 1)
	results := rec.results()
	require.Len(t, results, 1)
	assert.Same(t, c, results[0])
	assert.Zero(t, rec.count(StateAwaitingInterval))
}

func TestLoop_EmptyCycleCountsAndSkipsSnapshot(t *testing.T) {
	rec := &recorder{}
	snaps := &fakeSnapshots{}
	sink := &fakeSink{}
	l := NewLoop(snaps, rec, sink)
	l.after = readyAfter

	var numbers []int
	job := Job{Strategy: StrategyImport, Hub: G0Q86}
	job.Scan = func(_ context.Context, progress func(string)) []Opportunity {
		progress("working")
		numbers = append(numbers, len(numbers)+1)
		if len(numbers) == 3 {
			l.Stop()
			return []Opportunity{{TypeID: 9, DailyProfit: 1}}
		}
		return nil
	}

	state := l.Run(context.Background(), job, LoopOptions{Repeat: true, Interval: 2 * time.Second})

	assert.Equal(t, StateStopped, state)
	assert.Equal(t, []int{1, 2, 3}, numbers)
	assert.Empty(t, snaps.written)
	assert.Len(t, sink.cycles, 2)
	assert.Equal(t, 4, rec.count(StateAwaitingInterval))

	// The interrupted cycle is reported with its partial results.
	results := rec.results()
	require.Len(t, results, 3)
	last := results[2]
	assert.True(t, last.Cancelled)
	assert.Equal(t, 3, last.Number)
	assert.Len(t, last.Opportunities, 1)
	assert.Empty(t, last.SnapshotPath)
}

func TestLoop_StopAtTick30(t *testing.T) {
	rec := &recorder{}
	l := NewLoop(nil, rec)
	var ticks int
	l.after = func(time.Duration) <-chan time.Time {
		ticks++
		if ticks == 30 {
			l.Stop()
			return make(chan time.Time)
		}
		return readyAfter(0)
	}

	state := l.Run(context.Background(), staticJob(), LoopOptions{Repeat: true, Interval: time.Minute})

	assert.Equal(t, StateStopped, state)
	assert.Equal(t, 30, ticks)
	assert.Equal(t, 30, rec.count(StateAwaitingInterval))

	rec.mu.Lock()
	last := rec.events[len(rec.events)-1]
	var firstWait Event
	for _, e := range rec.events {
		if e.State == StateAwaitingInterval {
			firstWait = e
			break
		}
	}
	rec.mu.Unlock()
	assert.Equal(t, StateStopped, last.State)
	assert.Equal(t, time.Minute, firstWait.Remaining)
}

func TestLoop_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(nil, nil)
	l.after = func(time.Duration) <-chan time.Time {
		cancel()
		return make(chan time.Time)
	}
	state := l.Run(ctx, staticJob(), LoopOptions{Repeat: true, Interval: time.Minute})
	assert.Equal(t, StateStopped, state)
}

func TestLoop_StopIsIdempotent(t *testing.T) {
	l := NewLoop(nil, nil)
	l.after = func(time.Duration) <-chan time.Time {
		l.Stop()
		l.Stop()
		return make(chan time.Time)
	}
	assert.Equal(t, StateStopped, l.Run(context.Background(), staticJob(), LoopOptions{Repeat: true, Interval: time.Minute}))
	assert.Equal(t, StateIdle, l.Run(context.Background(), staticJob(), LoopOptions{}))
}

func TestLoop_StopBeforeRunIsHonoured(t *testing.T) {
	rec := &recorder{}
	l := NewLoop(nil, rec)
	var scans int
	job := staticJob()
	job.Scan = func(context.Context, func(string)) []Opportunity {
		scans++
		return nil
	}

	l.Stop()
	assert.Equal(t, StateStopped, l.Run(context.Background(), job, LoopOptions{Repeat: true, Interval: time.Minute}))
	assert.Zero(t, scans)
	assert.Equal(t, 1, rec.count(StateStopped))

	assert.Equal(t, StateIdle, l.Run(context.Background(), job, LoopOptions{}))
	assert.Equal(t, 1, scans)
}

func TestLoop_ZeroIntervalStillWaits(t *testing.T) {
	rec := &recorder{}
	l := NewLoop(nil, rec)
	var ticks int
	l.after = func(time.Duration) <-chan time.Time {
		ticks++
		if ticks == 3 {
			l.Stop()
			return make(chan time.Time)
		}
		return readyAfter(0)
	}

	state := l.Run(context.Background(), staticJob(), LoopOptions{Repeat: true, Interval: 0})

	assert.Equal(t, StateStopped, state)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 3, rec.count(StateAwaitingInterval))
	assert.Len(t, rec.results(), 3)
}

func TestLoop_SnapshotErrorStillReports(t *testing.T) {
	rec := &recorder{}
	l := NewLoop(&fakeSnapshots{err: errors.New("disk full")}, rec)
	l.Run(context.Background(), staticJob(Opportunity{TypeID: 1, DailyProfit: 5}), LoopOptions{})

	results := rec.results()
	require.Len(t, results, 1)
	assert.Empty(t, results[0].SnapshotPath)
}

func TestLoop_ProgressForwarded(t *testing.T) {
	obs := NewChannelObserver(64)
	l := NewLoop(nil, obs)
	job := staticJob()
	job.Scan = func(_ context.Context, progress func(string)) []Opportunity {
		progress("Downloading orders for Jita...")
		return nil
	}
	l.Run(context.Background(), job, LoopOptions{})
	close(obs.C)

	var msgs []string
	for e := range obs.C {
		msgs = append(msgs, e.Message)
	}
	require.Len(t, msgs, 3)
	assert.True(t, strings.HasPrefix(msgs[0], "Cycle #1"))
	assert.Equal(t, "Downloading orders for Jita...", msgs[1])
	assert.Equal(t, "Cycle #1: nothing found.", msgs[2])
}

func TestChannelObserver_NeverBlocks(t *testing.T) {
	obs := NewChannelObserver(1)
	for i := 0; i < 5; i++ {
		obs.Observe(Event{Message: "x"})
	}
	assert.Len(t, obs.C, 1)
	assert.Equal(t, int64(4), obs.Dropped())
}

func TestStrategyPrefix(t *testing.T) {
	assert.Equal(t, "TRADE", StrategyVelocity.Prefix())
	assert.Equal(t, "IMPORT", StrategyImport.Prefix())
}

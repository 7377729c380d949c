package engine

import (
	"fmt"
	"sync/atomic"
	"time"
)

// State is a scan loop state.
type State int32

const (
	StateIdle State = iota
	StateRunningScan
	StateAwaitingInterval
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunningScan:
		return "running"
	case StateAwaitingInterval:
		return "waiting"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Event is one status update published by the scan loop. Result is set only
// on the event that closes a cycle.
type Event struct {
	State     State
	Cycle     int
	Message   string
	Remaining time.Duration // Awaiting-Interval only
	Result    *Cycle
	At        time.Time
}

// Observer receives loop events. Implementations must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// ChannelObserver forwards events to a buffered channel and drops events
// when the consumer falls behind.
type ChannelObserver struct {
	C       chan Event
	dropped atomic.Int64
}

// NewChannelObserver creates a ChannelObserver with the given buffer size.
func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{C: make(chan Event, buffer)}
}

func (o *ChannelObserver) Observe(e Event) {
	select {
	case o.C <- e:
	default:
		o.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded.
func (o *ChannelObserver) Dropped() int64 { return o.dropped.Load() }

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) Observe(e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}

package cli

import (
	"fmt"
	"io"
	"sync"

	"eve-arbscan/internal/engine"
	"eve-arbscan/internal/report"
)

// consoleObserver prints loop events and result tables.
type consoleObserver struct {
	mu      sync.Mutex
	out     io.Writer
	top     int
	waiting bool
}

func newConsoleObserver(out io.Writer, top int) *consoleObserver {
	return &consoleObserver{out: out, top: top}
}

func (c *consoleObserver) Observe(e engine.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.State == engine.StateAwaitingInterval {
		// Countdown rewrites a single line.
		fmt.Fprintf(c.out, "\r%-60s", e.Message)
		c.waiting = true
		return
	}
	if c.waiting {
		fmt.Fprintln(c.out)
		c.waiting = false
	}
	fmt.Fprintf(c.out, "[%s] %s\n", e.At.Format("15:04:05"), e.Message)

	if e.Result != nil && len(e.Result.Opportunities) > 0 {
		fmt.Fprintln(c.out)
		report.Table(c.out, e.Result.Opportunities, c.top)
		if rest := len(e.Result.Opportunities) - c.top; c.top > 0 && rest > 0 {
			fmt.Fprintf(c.out, "... %d more in the snapshot\n", rest)
		}
		fmt.Fprintln(c.out)
	}
}

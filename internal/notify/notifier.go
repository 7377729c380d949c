// Package notify sends cycle summaries to chat channels.
package notify

import (
	"context"
	"fmt"
	"strings"

	"eve-arbscan/internal/engine"
	"eve-arbscan/internal/logger"
	"eve-arbscan/internal/report"
)

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier posts the best opportunities of each non-empty cycle to every
// configured sender.
type Notifier struct {
	senders []Sender
	topN    int
}

// NewNotifier creates a Notifier. topN bounds the rows per message.
func NewNotifier(senders []Sender, topN int) *Notifier {
	if topN <= 0 {
		topN = 5
	}
	return &Notifier{senders: senders, topN: topN}
}

// Enabled reports whether any sender is configured.
func (n *Notifier) Enabled() bool { return len(n.senders) > 0 }

// HandleCycle sends a summary of c. Empty cycles are not announced.
func (n *Notifier) HandleCycle(ctx context.Context, c *engine.Cycle) error {
	if len(c.Opportunities) == 0 || len(n.senders) == 0 {
		return nil
	}
	title, body := FormatCycle(c, n.topN)

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, body); err != nil {
			logger.Warn("NOTIFY", fmt.Sprintf("%s: %v", s.Name(), err))
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		logger.Debug("NOTIFY", fmt.Sprintf("cycle #%d sent via %s", c.Number, s.Name()))
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// FormatCycle renders a short title and one line per top opportunity.
func FormatCycle(c *engine.Cycle, topN int) (string, string) {
	title := fmt.Sprintf("%s %s cycle #%d: %d opportunities", c.Hub.Abbrev(), c.Strategy.Prefix(), c.Number, len(c.Opportunities))
	n := topN
	if n > len(c.Opportunities) {
		n = len(c.Opportunities)
	}
	var b strings.Builder
	for i, o := range c.Opportunities[:n] {
		fmt.Fprintf(&b, "%d. %s: %s -> %s ISK, ROI %s, %s/day, est. %s ISK/day\n",
			i+1, o.Name, report.ISK(o.BuyPrice), report.ISK(o.SellPrice),
			report.Percent(o.ROI), report.Volume(o.DailyVolume), report.ISK(o.DailyProfit))
	}
	if rest := len(c.Opportunities) - n; rest > 0 {
		fmt.Fprintf(&b, "... and %d more", rest)
	}
	return title, strings.TrimRight(b.String(), "\n")
}

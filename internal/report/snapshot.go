// Package report writes cycle snapshots and formats opportunities for display.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"eve-arbscan/internal/engine"
)

// Header is the snapshot column order.
var Header = []string{"Name", "Type", "Buy Price", "Sell Price", "Profit", "ROI", "Vol/Day", "Est. Daily"}

// Writer persists non-empty cycles as CSV files under Dir.
type Writer struct {
	Dir string
	now func() time.Time
}

// NewWriter creates a snapshot writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, now: time.Now}
}

// FileName builds {TRADE|IMPORT}_{hub abbrev}_{YYYY-MM-DD_HH-MM}.csv.
func FileName(strategy engine.Strategy, hub engine.Hub, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.csv", strategy.Prefix(), hub.Abbrev(), at.Format("2006-01-02_15-04"))
}

// WriteSnapshot writes the cycle's opportunities and returns the file path.
func (w *Writer) WriteSnapshot(c *engine.Cycle) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	now := time.Now
	if w.now != nil {
		now = w.now
	}
	path := filepath.Join(w.Dir, FileName(c.Strategy, c.Hub, now()))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	if err := WriteCSV(f, c.Opportunities); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	return path, nil
}

// WriteCSV writes opportunities with raw, unrounded numbers.
func WriteCSV(w io.Writer, opps []engine.Opportunity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range opps {
		rec := []string{
			o.Name,
			o.Tag,
			raw(o.BuyPrice),
			raw(o.SellPrice),
			raw(o.Profit),
			raw(o.ROI),
			raw(o.DailyVolume),
			raw(o.DailyProfit),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", o.TypeID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// raw renders the shortest exact decimal form, never in exponent notation.
func raw(v float64) string {
	return decimal.NewFromFloat(v).String()
}

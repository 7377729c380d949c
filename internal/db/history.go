package db

import (
	"context"
	"fmt"
	"time"

	"eve-arbscan/internal/engine"
)

// ScanRecord represents one persisted scan cycle.
type ScanRecord struct {
	ID          int64   `json:"id"`
	Timestamp   string  `json:"timestamp"`
	RunID       string  `json:"run_id"`
	CycleID     string  `json:"cycle_id"`
	Cycle       int     `json:"cycle"`
	Strategy    string  `json:"strategy"`
	Hub         string  `json:"hub"`
	Count       int     `json:"count"`
	TopProfit   float64 `json:"top_profit"`
	TotalProfit float64 `json:"total_profit"`
	DurationMs  int64   `json:"duration_ms"`
	Snapshot    string  `json:"snapshot"`
}

// HandleCycle records a completed cycle and its opportunities. Empty cycles
// are recorded too so the history shows every iteration.
func (d *DB) HandleCycle(ctx context.Context, c *engine.Cycle) error {
	id, err := d.InsertCycle(ctx, c)
	if err != nil {
		return err
	}
	return d.InsertOpportunities(ctx, id, c.Opportunities)
}

// InsertCycle inserts a scan history record and returns its ID.
func (d *DB) InsertCycle(ctx context.Context, c *engine.Cycle) (int64, error) {
	started := c.StartedAt
	if started.IsZero() {
		started = d.now()
	}
	result, err := d.sql.ExecContext(ctx,
		`INSERT INTO scan_history (timestamp, run_id, cycle_id, cycle, strategy, hub, count, top_profit, total_profit, duration_ms, snapshot)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		started.UTC().Format(time.RFC3339), c.RunID.String(), c.ID.String(), c.Number,
		string(c.Strategy), c.Hub.Name, len(c.Opportunities), c.TopDailyProfit(), c.TotalDailyProfit(),
		c.Duration.Milliseconds(), c.SnapshotPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert cycle %d: %w", c.Number, err)
	}
	return result.LastInsertId()
}

const scanColumns = `id, timestamp, run_id, cycle_id, cycle, strategy, hub, count, top_profit, total_profit, duration_ms, snapshot`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (ScanRecord, error) {
	var r ScanRecord
	err := row.Scan(&r.ID, &r.Timestamp, &r.RunID, &r.CycleID, &r.Cycle, &r.Strategy, &r.Hub,
		&r.Count, &r.TopProfit, &r.TotalProfit, &r.DurationMs, &r.Snapshot)
	return r, err
}

// GetHistory returns the last N scan history records (newest first).
func (d *DB) GetHistory(limit int) []ScanRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(`SELECT `+scanColumns+` FROM scan_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return []ScanRecord{}
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			continue
		}
		records = append(records, r)
	}
	if records == nil {
		return []ScanRecord{}
	}
	return records
}

// GetHistoryByID returns a single scan history record.
func (d *DB) GetHistoryByID(id int64) *ScanRecord {
	r, err := scanRecord(d.sql.QueryRow(`SELECT `+scanColumns+` FROM scan_history WHERE id = ?`, id))
	if err != nil {
		return nil
	}
	return &r
}

// DeleteHistory deletes a scan history record and its results.
func (d *DB) DeleteHistory(id int64) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM opportunity_results WHERE scan_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM scan_history WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearHistory deletes scan history records older than the given number of days.
func (d *DB) ClearHistory(olderThanDays int) (int64, error) {
	cutoff := d.now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)

	tx, err := d.sql.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(
		"DELETE FROM opportunity_results WHERE scan_id IN (SELECT id FROM scan_history WHERE timestamp < ?)", cutoff,
	); err != nil {
		return 0, err
	}
	result, err := tx.Exec("DELETE FROM scan_history WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

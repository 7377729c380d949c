package db

import (
	"fmt"
	"time"

	"eve-arbscan/internal/esi"
	"eve-arbscan/internal/logger"
)

// GetMarketHistory retrieves cached market history for a region/type pair.
// Returns nil, false if not cached or older than the history TTL.
func (d *DB) GetMarketHistory(regionID int32, typeID int32) ([]esi.HistoryEntry, bool) {
	var updatedAt string
	err := d.sql.QueryRow(
		"SELECT updated_at FROM market_history_meta WHERE region_id=? AND type_id=?",
		regionID, typeID,
	).Scan(&updatedAt)
	if err != nil {
		return nil, false
	}

	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil || d.now().Sub(t) > d.historyTTL {
		return nil, false
	}

	rows, err := d.sql.Query(
		"SELECT date, average, highest, lowest, volume, order_count FROM market_history WHERE region_id=? AND type_id=? ORDER BY date",
		regionID, typeID,
	)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var entries []esi.HistoryEntry
	for rows.Next() {
		var e esi.HistoryEntry
		if err := rows.Scan(&e.Date, &e.Average, &e.Highest, &e.Lowest, &e.Volume, &e.OrderCount); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// SetMarketHistory replaces the cached series for a region/type pair. The
// whole series is kept so trailing-window stats match an uncached lookup.
func (d *DB) SetMarketHistory(regionID int32, typeID int32, entries []esi.HistoryEntry) {
	tx, err := d.sql.Begin()
	if err != nil {
		return
	}
	defer tx.Rollback()

	tx.Exec("DELETE FROM market_history WHERE region_id=? AND type_id=?", regionID, typeID)

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO market_history (region_id, type_id, date, average, highest, lowest, volume, order_count) VALUES (?,?,?,?,?,?,?,?)")
	if err != nil {
		return
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(regionID, typeID, e.Date, e.Average, e.Highest, e.Lowest, e.Volume, e.OrderCount); err != nil {
			logger.Debug("DB", fmt.Sprintf("history row %d/%d %s: %v", regionID, typeID, e.Date, err))
		}
	}

	tx.Exec(
		"INSERT OR REPLACE INTO market_history_meta (region_id, type_id, updated_at) VALUES (?,?,?)",
		regionID, typeID, d.now().UTC().Format(time.RFC3339),
	)

	tx.Commit()
}

// CleanupOldHistory removes meta entries not refreshed in 30 days and the
// history rows they covered.
func (d *DB) CleanupOldHistory() {
	cutoffMeta := d.now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)

	res, err := d.sql.Exec("DELETE FROM market_history_meta WHERE updated_at < ?", cutoffMeta)
	if err != nil {
		logger.Warn("DB", fmt.Sprintf("CleanupOldHistory: meta delete: %v", err))
	} else if n, _ := res.RowsAffected(); n > 0 {
		logger.Info("DB", fmt.Sprintf("CleanupOldHistory: removed %d stale meta entries", n))
	}

	res, err = d.sql.Exec(`
		DELETE FROM market_history
		WHERE NOT EXISTS (
			SELECT 1 FROM market_history_meta m
			WHERE m.region_id = market_history.region_id AND m.type_id = market_history.type_id
		)
	`)
	if err != nil {
		logger.Warn("DB", fmt.Sprintf("CleanupOldHistory: orphan delete: %v", err))
	} else if n, _ := res.RowsAffected(); n > 0 {
		logger.Info("DB", fmt.Sprintf("CleanupOldHistory: removed %d orphaned history rows", n))
	}
}

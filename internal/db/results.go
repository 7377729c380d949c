package db

import (
	"context"
	"fmt"

	"eve-arbscan/internal/engine"
)

// InsertOpportunities stores a cycle's ranked opportunities.
func (d *DB) InsertOpportunities(ctx context.Context, scanID int64, opps []engine.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO opportunity_results (
		scan_id, rank, type_id, type_name, tag, buy_price, sell_price, profit, roi, daily_volume, daily_profit
	) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, o := range opps {
		if _, err := stmt.ExecContext(ctx, scanID, i+1, o.TypeID, o.Name, o.Tag,
			o.BuyPrice, o.SellPrice, o.Profit, o.ROI, o.DailyVolume, o.DailyProfit); err != nil {
			return fmt.Errorf("insert opportunity %d: %w", o.TypeID, err)
		}
	}
	return tx.Commit()
}

// GetOpportunities retrieves the opportunities of a scan in rank order.
func (d *DB) GetOpportunities(scanID int64) []engine.Opportunity {
	rows, err := d.sql.Query(`SELECT type_id, type_name, tag, buy_price, sell_price, profit, roi, daily_volume, daily_profit
		FROM opportunity_results WHERE scan_id = ? ORDER BY rank`, scanID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []engine.Opportunity
	for rows.Next() {
		var o engine.Opportunity
		if err := rows.Scan(&o.TypeID, &o.Name, &o.Tag, &o.BuyPrice, &o.SellPrice,
			&o.Profit, &o.ROI, &o.DailyVolume, &o.DailyProfit); err != nil {
			continue
		}
		out = append(out, o)
	}
	return out
}

package db

import (
	"fmt"
	"strings"
	"time"

	"eve-arbscan/internal/logger"
)

// GetTypeNames returns cached names for the given type IDs.
func (d *DB) GetTypeNames(ids []int32) map[int32]string {
	out := make(map[int32]string, len(ids))
	const batch = 500
	for start := 0; start < len(ids); start += batch {
		end := start + batch
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		q := "SELECT type_id, name FROM type_names WHERE type_id IN (" +
			strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",") + ")"
		rows, err := d.sql.Query(q, args...)
		if err != nil {
			logger.Debug("DB", fmt.Sprintf("type names: %v", err))
			return out
		}
		for rows.Next() {
			var id int32
			var name string
			if rows.Scan(&id, &name) == nil {
				out[id] = name
			}
		}
		rows.Close()
	}
	return out
}

// SetTypeNames stores resolved type names.
func (d *DB) SetTypeNames(names map[int32]string) {
	if len(names) == 0 {
		return
	}
	tx, err := d.sql.Begin()
	if err != nil {
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO type_names (type_id, name, updated_at) VALUES (?,?,?)")
	if err != nil {
		return
	}
	defer stmt.Close()

	now := d.now().UTC().Format(time.RFC3339)
	for id, name := range names {
		stmt.Exec(id, name, now)
	}
	tx.Commit()
}

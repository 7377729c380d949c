package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"eve-arbscan/internal/logger"
)

// DefaultHistoryTTL is how long cached market history is considered fresh.
const DefaultHistoryTTL = 24 * time.Hour

// DB wraps a SQLite database connection.
type DB struct {
	sql        *sql.DB
	historyTTL time.Duration
	now        func() time.Time
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string, historyTTL time.Duration) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := newDB(sqlDB, historyTTL)
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

func newDB(sqlDB *sql.DB, historyTTL time.Duration) *DB {
	if historyTTL <= 0 {
		historyTTL = DefaultHistoryTTL
	}
	return &DB{sql: sqlDB, historyTTL: historyTTL, now: time.Now}
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS scan_history (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp    TEXT NOT NULL,
				run_id       TEXT NOT NULL,
				cycle_id     TEXT NOT NULL UNIQUE,
				cycle        INTEGER NOT NULL,
				strategy     TEXT NOT NULL,
				hub          TEXT NOT NULL,
				count        INTEGER NOT NULL,
				top_profit   REAL NOT NULL,
				total_profit REAL NOT NULL DEFAULT 0,
				duration_ms  INTEGER NOT NULL DEFAULT 0,
				snapshot     TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_scan_history_ts ON scan_history(timestamp);
			CREATE INDEX IF NOT EXISTS idx_scan_history_run ON scan_history(run_id);

			CREATE TABLE IF NOT EXISTS opportunity_results (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				scan_id      INTEGER NOT NULL REFERENCES scan_history(id),
				rank         INTEGER NOT NULL,
				type_id      INTEGER,
				type_name    TEXT,
				tag          TEXT,
				buy_price    REAL,
				sell_price   REAL,
				profit       REAL,
				roi          REAL,
				daily_volume REAL,
				daily_profit REAL
			);
			CREATE INDEX IF NOT EXISTS idx_opportunity_scan ON opportunity_results(scan_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS market_history (
				region_id   INTEGER NOT NULL,
				type_id     INTEGER NOT NULL,
				date        TEXT NOT NULL,
				average     REAL,
				highest     REAL,
				lowest      REAL,
				volume      INTEGER,
				order_count INTEGER,
				PRIMARY KEY (region_id, type_id, date)
			);

			CREATE TABLE IF NOT EXISTS market_history_meta (
				region_id  INTEGER NOT NULL,
				type_id    INTEGER NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (region_id, type_id)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (market history)")
	}

	if version < 3 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS type_names (
				type_id    INTEGER PRIMARY KEY,
				name       TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (3);
		`)
		if err != nil {
			return fmt.Errorf("migration v3: %w", err)
		}
		logger.Info("DB", "Applied migration v3 (type names)")
	}

	return nil
}

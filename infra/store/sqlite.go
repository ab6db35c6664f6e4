// Package store persists decision records in a SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanadyn/flowbid/core/store"
)

// SQLiteRecorder implements store.Recorder on a local SQLite file.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS station_profile (
			id              INTEGER PRIMARY KEY CHECK (id = 1),
			station_name    TEXT NOT NULL,
			location        TEXT,
			commission_date TEXT,
			e_rated         REAL,
			p_rated         REAL
		)`,
		`CREATE TABLE IF NOT EXISTS decision_records (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL,
			run_timestamp     TEXT NOT NULL,
			station_name      TEXT,
			market_mode       TEXT,
			decision_mode     TEXT,
			net_profit        REAL,
			da_profit         REAL,
			fm_profit         REAL,
			total_throughput  REAL,
			equivalent_cycles REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decision_records_run_timestamp
			ON decision_records(run_timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveDecision appends one run summary.
func (r *SQLiteRecorder) SaveDecision(rec store.DecisionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rec.RunTimestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO decision_records (
			run_id, run_timestamp, station_name, market_mode, decision_mode,
			net_profit, da_profit, fm_profit, total_throughput, equivalent_cycles
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, ts.UTC().Format(time.RFC3339), rec.StationName,
		rec.MarketMode, rec.DecisionMode,
		rec.NetProfit, rec.DAProfit, rec.FMProfit,
		rec.Throughput, rec.EquivalentCycles)
	if err != nil {
		return fmt.Errorf("insert decision record: %w", err)
	}
	return nil
}

// SaveProfile upserts the single station profile row.
func (r *SQLiteRecorder) SaveProfile(p store.StationProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO station_profile (
			id, station_name, location, commission_date, e_rated, p_rated
		) VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			station_name = excluded.station_name,
			location = excluded.location,
			commission_date = excluded.commission_date,
			e_rated = excluded.e_rated,
			p_rated = excluded.p_rated`,
		p.Name, p.Location, p.CommissionDate, p.ERated, p.PRated)
	if err != nil {
		return fmt.Errorf("upsert station profile: %w", err)
	}
	return nil
}

// Decisions returns all stored records, newest first. Exposed for
// dashboards and tests; the engine itself never reads records back.
func (r *SQLiteRecorder) Decisions() ([]store.DecisionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, run_timestamp, station_name,
			market_mode, decision_mode, net_profit, da_profit, fm_profit,
			total_throughput, equivalent_cycles
		FROM decision_records ORDER BY run_timestamp DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []store.DecisionRecord
	for rows.Next() {
		var rec store.DecisionRecord
		var ts string
		if err := rows.Scan(&rec.RunID, &ts, &rec.StationName,
			&rec.MarketMode, &rec.DecisionMode, &rec.NetProfit,
			&rec.DAProfit, &rec.FMProfit, &rec.Throughput,
			&rec.EquivalentCycles); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.RunTimestamp = parsed
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error { return r.db.Close() }

package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/kilianp07/solarsched/core/scheduler"
	_ "modernc.org/sqlite"
)

// Run is a stored simulation day.
type Run struct {
	Engine  string
	Summary scheduler.Summary
}

// SQLiteStore persists simulation runs and per-vehicle outcomes in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    day INTEGER,
    engine TEXT,
    peak_solar_w REAL,
    total_vehicles INTEGER,
    scheduled_vehicles INTEGER,
    required_wh REAL,
    solar_wh REAL,
    consumed_wh REAL,
    grid_wh REAL,
    solar_unused_wh REAL,
    missed TEXT
);
CREATE TABLE IF NOT EXISTS outcomes (
    run_id TEXT,
    vehicle_id TEXT,
    required_kwh REAL,
    delivered_kwh REAL,
    overcharge_kwh REAL,
    missing_kwh REAL,
    soc_reached REAL,
    scheduled INTEGER,
    met INTEGER,
    PRIMARY KEY(run_id, vehicle_id)
);`

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Add stores a run and its outcomes in one transaction. Storing a run id
// again replaces the previous rows.
func (s *SQLiteStore) Add(run Run, outcomes []scheduler.Outcome) (err error) {
	if run.Summary.RunID == "" {
		return errors.New("store: run id is required")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	sum := run.Summary
	if _, err = tx.Exec(`INSERT OR REPLACE INTO runs (run_id, day, engine, peak_solar_w,
        total_vehicles, scheduled_vehicles, required_wh, solar_wh, consumed_wh, grid_wh,
        solar_unused_wh, missed) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.Date.Unix(), run.Engine, sum.PeakSolarW, sum.TotalVehicles,
		sum.ScheduledVehicles, sum.RequiredWh, sum.SolarWh, sum.ConsumedWh, sum.GridWh,
		sum.SolarUnusedWh, strings.Join(sum.Missed, ",")); err != nil {
		return err
	}
	if _, err = tx.Exec(`DELETE FROM outcomes WHERE run_id = ?`, sum.RunID); err != nil {
		return err
	}
	for _, o := range outcomes {
		if _, err = tx.Exec(`INSERT INTO outcomes (run_id, vehicle_id, required_kwh,
            delivered_kwh, overcharge_kwh, missing_kwh, soc_reached, scheduled, met)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sum.RunID, o.VehicleID, o.RequiredKWh, o.DeliveredKWh, o.OverchargeKWh,
			o.MissingKWh, o.SoCReached, o.Scheduled, o.Met); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Runs returns runs whose day lies in the range [start,end], oldest first.
func (s *SQLiteStore) Runs(start, end time.Time) ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, day, engine, peak_solar_w, total_vehicles,
        scheduled_vehicles, required_wh, solar_wh, consumed_wh, grid_wh, solar_unused_wh, missed
        FROM runs WHERE day >= ? AND day <= ? ORDER BY day, run_id`, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Run
	for rows.Next() {
		var r Run
		var ts int64
		var missed string
		sum := &r.Summary
		if err := rows.Scan(&sum.RunID, &ts, &r.Engine, &sum.PeakSolarW, &sum.TotalVehicles,
			&sum.ScheduledVehicles, &sum.RequiredWh, &sum.SolarWh, &sum.ConsumedWh,
			&sum.GridWh, &sum.SolarUnusedWh, &missed); err != nil {
			return nil, err
		}
		sum.Date = time.Unix(ts, 0).UTC()
		if missed != "" {
			sum.Missed = strings.Split(missed, ",")
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Outcomes returns the stored outcomes of a run ordered by vehicle id.
func (s *SQLiteStore) Outcomes(runID string) ([]scheduler.Outcome, error) {
	rows, err := s.db.Query(`SELECT vehicle_id, required_kwh, delivered_kwh, overcharge_kwh,
        missing_kwh, soc_reached, scheduled, met FROM outcomes WHERE run_id = ? ORDER BY vehicle_id`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []scheduler.Outcome
	for rows.Next() {
		var o scheduler.Outcome
		if err := rows.Scan(&o.VehicleID, &o.RequiredKWh, &o.DeliveredKWh, &o.OverchargeKWh,
			&o.MissingKWh, &o.SoCReached, &o.Scheduled, &o.Met); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Package store keeps a history of planning runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kilianp07/slotplan/core/model"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is the header of a saved planning run.
type Run struct {
	ID              string
	CreatedAt       time.Time
	Method          model.Method
	Today           time.Time
	Weeks           int
	AssignedSlots   int
	UnscheduledDays float64
}

// SQLiteStore persists runs, their slots and statistics.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created INTEGER NOT NULL,
    method TEXT NOT NULL,
    today INTEGER NOT NULL,
    weeks INTEGER NOT NULL,
    assigned INTEGER NOT NULL,
    unscheduled REAL NOT NULL,
    stats TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_slots (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    idx INTEGER NOT NULL,
    day INTEGER NOT NULL,
    half INTEGER NOT NULL,
    project TEXT NOT NULL,
    PRIMARY KEY(run_id, idx)
);
CREATE INDEX IF NOT EXISTS runs_created ON runs(created);`

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps writes serialized and makes ":memory:" usable.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;` + schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Save stores s and returns the new run id.
func (st *SQLiteStore) Save(ctx context.Context, s *model.Schedule, created time.Time) (string, error) {
	stats, err := json.Marshal(s.Stats)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	tx, err := st.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created, method, today, weeks, assigned, unscheduled, stats)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, created.UnixNano(), string(s.Method), s.Start.Unix(), s.Weeks,
		s.AssignedSlots(), s.UnscheduledDays(), string(stats)); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_slots (run_id, idx, day, half, project) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer func() { _ = stmt.Close() }()
	for _, sl := range s.Slots {
		if _, err := stmt.ExecContext(ctx, id, sl.Index, sl.Date.Unix(), int(sl.Half), sl.Project); err != nil {
			return "", fmt.Errorf("insert slot %d: %w", sl.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// List returns the most recent runs first. A limit <= 0 returns all runs.
func (st *SQLiteStore) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, created, method, today, weeks, assigned, unscheduled FROM runs ORDER BY created DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := st.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Run
	for rows.Next() {
		r, _, err := scanRun(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, withStats bool) (Run, []model.ProjectStats, error) {
	var (
		r              Run
		created, today int64
		method, stats  string
	)
	dest := []any{&r.ID, &created, &method, &today, &r.Weeks, &r.AssignedSlots, &r.UnscheduledDays}
	if withStats {
		dest = append(dest, &stats)
	}
	if err := sc.Scan(dest...); err != nil {
		return Run{}, nil, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()
	r.Method = model.Method(method)
	r.Today = time.Unix(today, 0).UTC()
	if !withStats {
		return r, nil, nil
	}
	var ps []model.ProjectStats
	if err := json.Unmarshal([]byte(stats), &ps); err != nil {
		return Run{}, nil, fmt.Errorf("decode stats: %w", err)
	}
	return r, ps, nil
}

// Get rebuilds the schedule of a saved run. Projects are not stored, so the
// returned schedule carries slots and statistics only.
func (st *SQLiteStore) Get(ctx context.Context, id string) (Run, *model.Schedule, error) {
	row := st.db.QueryRowContext(ctx,
		`SELECT id, created, method, today, weeks, assigned, unscheduled, stats FROM runs WHERE id = ?`, id)
	r, stats, err := scanRun(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, nil, err
	}
	s := &model.Schedule{
		Method: r.Method,
		Start:  r.Today,
		End:    r.Today.AddDate(0, 0, 7*r.Weeks),
		Weeks:  r.Weeks,
		Stats:  stats,
	}
	rows, err := st.db.QueryContext(ctx, `SELECT idx, day, half, project FROM run_slots WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return Run{}, nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var (
			sl   model.ScheduledSlot
			day  int64
			half int
		)
		if err := rows.Scan(&sl.Index, &day, &half, &sl.Project); err != nil {
			return Run{}, nil, err
		}
		sl.Date = time.Unix(day, 0).UTC()
		sl.Half = model.Half(half)
		s.Slots = append(s.Slots, sl)
	}
	return r, s, rows.Err()
}

// Prune deletes all but the keep most recent runs and returns how many were
// removed.
func (st *SQLiteStore) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := st.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY created DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (st *SQLiteStore) Close() error { return st.db.Close() }

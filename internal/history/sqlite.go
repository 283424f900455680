package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/johndauphine/tblprof/internal/logging"
)

// Ensure State implements Backend
var _ Backend = (*State)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	operation TEXT NOT NULL,
	engine TEXT NOT NULL,
	tables TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	started_at TEXT NOT NULL,
	completed_at TEXT,
	duplicates INTEGER
);
CREATE TABLE IF NOT EXISTS metrics (
	run_id TEXT NOT NULL REFERENCES runs(id),
	seq INTEGER NOT NULL,
	table_name TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// State is the SQLite history store.
type State struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
// ":memory:" opens a private in-memory store.
func Open(path string) (*State, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// One writer; also keeps an in-memory database alive.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	logging.Debug("History database: %s", path)
	return &State{db: db}, nil
}

// Close closes the database.
func (s *State) Close() error {
	return s.db.Close()
}

// CreateRun records a new running operation and returns its ID.
func (s *State) CreateRun(ctx context.Context, operation, engine string, tables []string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, operation, engine, tables, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, operation, engine, strings.Join(tables, ","), StatusRunning, formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return id, nil
}

// CompleteRun sets the final status of a run.
func (s *State) CompleteRun(ctx context.Context, id, status, errorMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		status, errorMsg, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("completing run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// SaveMetrics appends metrics for one table of a run, preserving order.
func (s *State) SaveMetrics(ctx context.Context, runID, table string, metrics []Metric) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM metrics WHERE run_id = ?`, runID).Scan(&seq); err != nil {
		return fmt.Errorf("reading metric sequence: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO metrics (run_id, seq, table_name, name, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range metrics {
		seq++
		if _, err := stmt.ExecContext(ctx, runID, seq, table, m.Name, m.Value); err != nil {
			return fmt.Errorf("saving metric %s: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

// SaveDuplicateCount stores the result of a duplicate count.
func (s *State) SaveDuplicateCount(ctx context.Context, runID, table string, count int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET duplicates = ? WHERE id = ?`, count, runID)
	if err != nil {
		return fmt.Errorf("saving duplicate count for %s: %w", table, err)
	}
	return nil
}

// GetAllRuns returns every run, newest first.
func (s *State) GetAllRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, operation, engine, tables, status, error, started_at, completed_at, duplicates
		 FROM runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRunByID returns one run, or nil when it does not exist.
func (s *State) GetRunByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, operation, engine, tables, status, error, started_at, completed_at, duplicates
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// GetMetrics returns a run's metrics in the order they were saved.
func (s *State) GetMetrics(ctx context.Context, runID string) ([]Metric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name, name, value FROM metrics WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.Table, &m.Name, &m.Value); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r           Run
		tables      string
		startedAt   string
		completedAt sql.NullString
		duplicates  sql.NullInt64
	)
	if err := sc.Scan(&r.ID, &r.Operation, &r.Engine, &tables, &r.Status, &r.Error, &startedAt, &completedAt, &duplicates); err != nil {
		return nil, err
	}
	if tables != "" {
		r.Tables = strings.Split(tables, ",")
	}
	r.StartedAt = parseTime(startedAt)
	if completedAt.Valid {
		t := parseTime(completedAt.String)
		r.CompletedAt = &t
	}
	if duplicates.Valid {
		n := duplicates.Int64
		r.Duplicates = &n
	}
	return &r, nil
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

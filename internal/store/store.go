package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/valpere/sraflow/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		total INTEGER DEFAULT 0,
		succeeded INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_units (
		run_id TEXT NOT NULL,
		accession TEXT NOT NULL,
		succeeded BOOLEAN NOT NULL,
		error TEXT,
		duration_ms INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, accession),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_run_units_run ON run_units(run_id);
	CREATE INDEX IF NOT EXISTS idx_run_units_accession ON run_units(accession);
	`

	_, err := s.db.Exec(schema)
	return err
}

// BeginRun records the start of a batch and returns the new run ID.
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		id, time.Now())
	return id, err
}

// RecordUnit persists the outcome of a single accession within a run.
func (s *Store) RecordUnit(ctx context.Context, runID string, u internal.UnitOutcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO run_units (run_id, accession, succeeded, error, duration_ms) VALUES (?, ?, ?, ?, ?)`,
		runID, u.Accession, u.Succeeded, u.Error, u.Duration.Milliseconds())
	return err
}

// FinishRun closes out a run with its final counters.
func (s *Store) FinishRun(ctx context.Context, runID string, total, succeeded, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, succeeded = ?, failed = ? WHERE id = ?`,
		time.Now(), total, succeeded, failed, runID)
	return err
}

// Run is a row from the runs table.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Total      int
	Succeeded  int
	Failed     int
}

// UnitRecord is a row from the run_units table.
type UnitRecord struct {
	RunID      string
	Accession  string
	Succeeded  bool
	Error      string
	DurationMs int64
	CreatedAt  time.Time
}

// HistoryStats summarises all recorded runs.
type HistoryStats struct {
	TotalRuns      int
	TotalUnits     int
	TotalSucceeded int
	TotalFailed    int
}

// ListRuns returns runs ordered by most recent first. A limit of 0 returns
// everything.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, total, succeeded, failed FROM runs ORDER BY started_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Total, &r.Succeeded, &r.Failed); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// ListUnits returns the per-accession records for a run.
func (s *Store) ListUnits(ctx context.Context, runID string) ([]UnitRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, accession, succeeded, error, duration_ms, created_at FROM run_units WHERE run_id = ? ORDER BY accession`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []UnitRecord
	for rows.Next() {
		var u UnitRecord
		if err := rows.Scan(&u.RunID, &u.Accession, &u.Succeeded, &u.Error, &u.DurationMs, &u.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, u)
	}

	return results, rows.Err()
}

// LastOutcome returns the most recent recorded outcome for an accession,
// or (nil, nil) when the accession has never been processed.
func (s *Store) LastOutcome(ctx context.Context, accession string) (*UnitRecord, error) {
	var u UnitRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, accession, succeeded, error, duration_ms, created_at FROM run_units WHERE accession = ? ORDER BY created_at DESC, run_id DESC LIMIT 1`,
		accession).Scan(&u.RunID, &u.Accession, &u.Succeeded, &u.Error, &u.DurationMs, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Stats returns summary statistics over all recorded history.
func (s *Store) Stats(ctx context.Context) (*HistoryStats, error) {
	stats := &HistoryStats{}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&stats.TotalRuns); err != nil {
		return nil, err
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN succeeded THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN NOT succeeded THEN 1 ELSE 0 END), 0)
		FROM run_units`).Scan(
		&stats.TotalUnits,
		&stats.TotalSucceeded,
		&stats.TotalFailed,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Clear removes all recorded history and returns the number of runs deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM run_units`); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

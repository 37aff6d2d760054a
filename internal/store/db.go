package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Fardin3303/etl-pipeline-mapbox-test/internal/model"
)

// Store is the local run-tracking database. It records sync runs, their
// stage progress and their errors in a sqlite file next to the binary; the
// destination Postgres database is never touched from here.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the tracking database and ensures its tables exist.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			city TEXT,
			status TEXT,
			fetched INTEGER DEFAULT 0,
			transformed INTEGER DEFAULT 0,
			skipped INTEGER DEFAULT 0,
			loaded INTEGER DEFAULT 0,
			duration_ms INTEGER DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			error_message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_stages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			stage TEXT,
			started_at DATETIME,
			finished_at DATETIME,
			records INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS run_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			stage TEXT,
			level TEXT,
			message TEXT,
			created_at DATETIME
		);`,
	}
	for _, ddl := range tables {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// CreateRun registers a new run in pending state.
func (s *Store) CreateRun(runID, city string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO runs (id, city, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, city, model.StatusPending, now, now)
	return err
}

// UpdateRunStatus moves a run to a new status.
func (s *Store) UpdateRunStatus(runID, status string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return err
}

// SaveRunError records an error message for a run.
func (s *Store) SaveRunError(runID string, runErr error) error {
	if runErr == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO run_errors (run_id, error_message, created_at) VALUES (?, ?, ?)`,
		runID, runErr.Error(), now)
	return err
}

// SaveStageProgress records one completed stage with its timing.
func (s *Store) SaveStageProgress(runID, stage string, startedAt, finishedAt time.Time, records int) error {
	_, err := s.db.Exec(`INSERT INTO run_stages (run_id, stage, started_at, finished_at, records) VALUES (?, ?, ?, ?, ?)`,
		runID, stage, startedAt.UTC(), finishedAt.UTC(), records)
	return err
}

// SaveRunLog records a structured log line for a run stage.
func (s *Store) SaveRunLog(runID, stage, level, message string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO run_logs (run_id, stage, level, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, stage, level, message, now)
	return err
}

// SaveRunSummary stores the final counters of a successful run.
func (s *Store) SaveRunSummary(runID string, summary model.RunSummary) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE runs SET fetched = ?, transformed = ?, skipped = ?, loaded = ?, duration_ms = ?, updated_at = ? WHERE id = ?`,
		summary.Fetched, summary.Transformed, summary.Skipped, summary.Loaded, summary.DurationMS, now, runID)
	return err
}

// ListRuns returns all runs, newest first, with basic info.
func (s *Store) ListRuns() ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT id, city, status, loaded, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, city, status string
		var loaded int
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &city, &status, &loaded, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":        id,
			"city":      city,
			"status":    status,
			"loaded":    loaded,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return runs, rows.Err()
}

// GetRun fetches one run with its counters.
func (s *Store) GetRun(runID string) (map[string]interface{}, error) {
	var city, status string
	var fetched, transformed, skipped, loaded int
	var durationMS int64
	var createdAt, updatedAt time.Time

	err := s.db.QueryRow(`SELECT city, status, fetched, transformed, skipped, loaded, duration_ms, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&city, &status, &fetched, &transformed, &skipped, &loaded, &durationMS, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":          runID,
		"city":        city,
		"status":      status,
		"fetched":     fetched,
		"transformed": transformed,
		"skipped":     skipped,
		"loaded":      loaded,
		"durationMs":  durationMS,
		"createdAt":   createdAt,
		"updatedAt":   updatedAt,
	}, nil
}

// GetRunErrors returns the recorded errors for a run, oldest first.
func (s *Store) GetRunErrors(runID string) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT error_message, created_at FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []map[string]interface{}
	for rows.Next() {
		var message string
		var createdAt time.Time
		if err := rows.Scan(&message, &createdAt); err != nil {
			return nil, err
		}
		errs = append(errs, map[string]interface{}{
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return errs, rows.Err()
}

// GetRunStages returns the recorded stage progress for a run, in order.
func (s *Store) GetRunStages(runID string) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT stage, started_at, finished_at, records FROM run_stages WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []map[string]interface{}
	for rows.Next() {
		var stage string
		var startedAt, finishedAt time.Time
		var records int
		if err := rows.Scan(&stage, &startedAt, &finishedAt, &records); err != nil {
			return nil, err
		}
		stages = append(stages, map[string]interface{}{
			"stage":      stage,
			"startedAt":  startedAt,
			"finishedAt": finishedAt,
			"records":    records,
		})
	}
	return stages, rows.Err()
}

// GetRunLogs returns the structured log lines recorded for a run.
func (s *Store) GetRunLogs(runID string) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT stage, level, message, created_at FROM run_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []map[string]interface{}
	for rows.Next() {
		var stage, level, message string
		var createdAt time.Time
		if err := rows.Scan(&stage, &level, &message, &createdAt); err != nil {
			return nil, err
		}
		logs = append(logs, map[string]interface{}{
			"stage":     stage,
			"level":     level,
			"message":   message,
			"createdAt": createdAt,
		})
	}
	return logs, rows.Err()
}

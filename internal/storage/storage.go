// Package storage provides SQLite-backed persistence: a cache of raw
// telemetry fetches and a history of analysis runs.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/frc-analytics/zebratrace/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db *sql.DB
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/zebratrace/data.db.
func New(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "zebratrace", "data.db")
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Storage{db: db}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS telemetry_cache (
			match_key  TEXT NOT NULL,
			team       INTEGER NOT NULL,
			present    INTEGER NOT NULL,
			samples    TEXT NOT NULL DEFAULT '[]',
			fetched_at INTEGER NOT NULL,
			PRIMARY KEY (match_key, team)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			team          INTEGER NOT NULL,
			event_key     TEXT NOT NULL,
			created_at    INTEGER NOT NULL,
			max_speed     REAL NOT NULL,
			avg_max_speed REAL NOT NULL,
			avg_speed     REAL NOT NULL,
			max_accel     REAL NOT NULL,
			avg_max_accel REAL NOT NULL,
			max_braking   REAL NOT NULL,
			avg_braking   REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS run_matches (
			run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			match_key   TEXT NOT NULL,
			max_speed   REAL NOT NULL,
			avg_speed   REAL NOT NULL,
			max_accel   REAL NOT NULL,
			max_braking REAL NOT NULL,
			PRIMARY KEY (run_id, match_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetTelemetry returns a cached telemetry fetch, if one exists.
func (s *Storage) GetTelemetry(matchKey string, team int) (models.MatchTelemetry, bool, error) {
	var present int
	var samplesJSON string
	err := s.db.QueryRow(
		`SELECT present, samples FROM telemetry_cache WHERE match_key = ? AND team = ?`,
		matchKey, team,
	).Scan(&present, &samplesJSON)
	if err == sql.ErrNoRows {
		return models.MatchTelemetry{}, false, nil
	}
	if err != nil {
		return models.MatchTelemetry{}, false, fmt.Errorf("failed to query telemetry cache: %w", err)
	}

	if present == 0 {
		return models.AbsentTelemetry(matchKey, team), true, nil
	}
	var samples []models.PositionSample
	if err := json.Unmarshal([]byte(samplesJSON), &samples); err != nil {
		return models.MatchTelemetry{}, false, fmt.Errorf("failed to decode cached samples: %w", err)
	}
	return models.PresentTelemetry(matchKey, team, samples), true, nil
}

// PutTelemetry stores a telemetry fetch result, absent ones included, so
// repeated runs skip the network either way.
func (s *Storage) PutTelemetry(t models.MatchTelemetry) error {
	present := 0
	samplesJSON := "[]"
	if t.HasData() {
		present = 1
		data, err := json.Marshal(t.Samples)
		if err != nil {
			return fmt.Errorf("failed to encode samples: %w", err)
		}
		samplesJSON = string(data)
	}
	_, err := s.db.Exec(
		`INSERT INTO telemetry_cache (match_key, team, present, samples, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (match_key, team) DO UPDATE SET
		 	present = excluded.present,
		 	samples = excluded.samples,
		 	fetched_at = excluded.fetched_at`,
		t.MatchKey, t.Team, present, samplesJSON, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store telemetry: %w", err)
	}
	return nil
}

// PruneCache drops cache entries fetched more than maxAge ago and
// returns the number removed.
func (s *Storage) PruneCache(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := s.db.Exec(`DELETE FROM telemetry_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}

// SaveRun records one completed run: its identity, global aggregates,
// and every per-match summary.
func (s *Storage) SaveRun(runID string, team int, eventKey string, createdAt time.Time, matches []models.MatchSummary, global models.GlobalSummary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, team, event_key, created_at, max_speed, avg_max_speed,
			avg_speed, max_accel, avg_max_accel, max_braking, avg_braking)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, team, eventKey, createdAt.Unix(),
		global.MaxSpeed, global.AvgMaxSpeed, global.AvgSpeed,
		global.MaxAcceleration, global.AvgMaxAcceleration,
		global.MaxBraking, global.AvgMaxBraking,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, m := range matches {
		_, err := tx.Exec(
			`INSERT INTO run_matches (run_id, match_key, max_speed, avg_speed, max_accel, max_braking)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, m.MatchKey, m.MaxSpeed, m.AvgSpeed, m.MaxAcceleration, m.MaxBraking,
		)
		if err != nil {
			return fmt.Errorf("failed to insert match summary %s: %w", m.MatchKey, err)
		}
	}
	return tx.Commit()
}

// RunMatches returns the per-match summaries recorded for a run, in
// match-key order.
func (s *Storage) RunMatches(runID string, team int) ([]models.MatchSummary, error) {
	rows, err := s.db.Query(
		`SELECT match_key, max_speed, avg_speed, max_accel, max_braking
		 FROM run_matches WHERE run_id = ? ORDER BY match_key`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run matches: %w", err)
	}
	defer rows.Close()

	var matches []models.MatchSummary
	for rows.Next() {
		m := models.MatchSummary{Team: team}
		if err := rows.Scan(&m.MatchKey, &m.MaxSpeed, &m.AvgSpeed, &m.MaxAcceleration, &m.MaxBraking); err != nil {
			return nil, fmt.Errorf("failed to scan match summary: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// RunCount returns how many runs have been recorded.
func (s *Storage) RunCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

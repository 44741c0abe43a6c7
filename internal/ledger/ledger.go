// Package ledger persists pipeline run lineage: one row per completed stage,
// carrying the stage artifact as JSON.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded stage completion.
type Entry struct {
	RunID     string
	Stage     string
	Artifact  json.RawMessage
	CreatedAt string
}

// Store records stage completions in SQLite.
type Store struct {
	db *sql.DB
}

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// Open opens or creates a SQLite DB at path and ensures the schema.
// Creates the parent directory if it does not exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
    run_id        TEXT NOT NULL,
    stage         TEXT NOT NULL,
    artifact_json TEXT NOT NULL,
    created_at    TEXT NOT NULL,
    UNIQUE(run_id, stage)
)`)
	if err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	return nil
}

// Record stores the artifact for a stage of a run. Re-recording the same
// run/stage pair replaces the previous artifact.
func (s *Store) Record(runID, stage string, artifact any) error {
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshal %s artifact: %w", stage, err)
	}
	_, err = s.db.Exec(`
INSERT INTO runs (run_id, stage, artifact_json, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(run_id, stage) DO UPDATE SET
    artifact_json = excluded.artifact_json,
    created_at    = excluded.created_at`,
		runID, stage, string(data), nowUTC())
	if err != nil {
		return fmt.Errorf("record %s artifact: %w", stage, err)
	}
	return nil
}

// Artifacts returns the recorded entries for a run in insertion order.
func (s *Store) Artifacts(runID string) ([]Entry, error) {
	rows, err := s.db.Query(
		"SELECT run_id, stage, artifact_json, created_at FROM runs WHERE run_id = ? ORDER BY rowid",
		runID)
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", runID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var artifact string
		if err := rows.Scan(&e.RunID, &e.Stage, &artifact, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		e.Artifact = json.RawMessage(artifact)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return entries, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

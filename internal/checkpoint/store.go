package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shortfilm/internal/artifact"
	"shortfilm/internal/config"
)

// Store manages checkpoint persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the checkpoint database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "checkpoints.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save persists the run state and any newly produced artifacts in a single
// transaction. A crash mid-save leaves the previous checkpoint intact.
// Artifact rows are write-once; re-saving an already persisted artifact is a
// no-op, which keeps resumed runs idempotent.
func (s *Store) Save(ctx context.Context, state *RunState, artifacts []artifact.Artifact) error {
	if state == nil {
		return errors.New("save checkpoint: nil run state")
	}
	if state.RunID == "" {
		return errors.New("save checkpoint: empty run id")
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkpoint tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, status, current_stage, title, state_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(run_id) DO UPDATE SET
            status = excluded.status,
            current_stage = excluded.current_stage,
            title = excluded.title,
            state_json = excluded.state_json,
            updated_at = excluded.updated_at`,
		state.RunID,
		string(state.Status),
		state.CurrentStage,
		state.Title,
		string(stateJSON),
		state.CreatedAt.Format(time.RFC3339Nano),
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", state.RunID, err)
	}

	for _, a := range artifacts {
		payload, err := artifact.Encode(a)
		if err != nil {
			return fmt.Errorf("encode artifact for checkpoint: %w", err)
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO artifacts (run_id, artifact_id, payload, created_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(run_id, artifact_id) DO NOTHING`,
			state.RunID,
			string(a.ArtifactID()),
			string(payload),
			now,
		)
		if err != nil {
			return fmt.Errorf("insert artifact %s: %w", a.ArtifactID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

// Load restores the run state and artifacts for the given run identifier.
func (s *Store) Load(ctx context.Context, runID string) (*RunState, map[artifact.ID]artifact.Artifact, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, "SELECT state_json FROM runs WHERE run_id = ?", runID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query run %s: %w", runID, err)
	}

	state := &RunState{}
	if err := json.Unmarshal([]byte(stateJSON), state); err != nil {
		return nil, nil, fmt.Errorf("%w: run %s: decode state: %v", ErrCorrupt, runID, err)
	}
	if state.RunID != runID {
		return nil, nil, fmt.Errorf("%w: run %s: state identifies run %s", ErrCorrupt, runID, state.RunID)
	}
	if state.Outcomes == nil {
		state.Outcomes = map[string]Outcome{}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT artifact_id, payload FROM artifacts WHERE run_id = ?", runID)
	if err != nil {
		return nil, nil, fmt.Errorf("query artifacts for run %s: %w", runID, err)
	}
	defer rows.Close()

	artifacts := make(map[artifact.ID]artifact.Artifact)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, nil, fmt.Errorf("scan artifact row: %w", err)
		}
		a, err := artifact.Decode(artifact.ID(id), []byte(payload))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: run %s: %v", ErrCorrupt, runID, err)
		}
		artifacts[a.ArtifactID()] = a
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate artifact rows: %w", err)
	}

	return state, artifacts, nil
}

// List returns summaries for all known runs, most recently updated first.
func (s *Store) List(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT state_json FROM runs ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0)
	for rows.Next() {
		var stateJSON string
		if err := rows.Scan(&stateJSON); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		state := &RunState{}
		if err := json.Unmarshal([]byte(stateJSON), state); err != nil {
			return nil, fmt.Errorf("%w: decode state: %v", ErrCorrupt, err)
		}
		summaries = append(summaries, RunSummary{
			RunID:        state.RunID,
			Title:        state.Title,
			Status:       state.Status,
			CurrentStage: state.CurrentStage,
			ErrorCount:   len(state.Errors),
			CreatedAt:    state.CreatedAt,
			UpdatedAt:    state.UpdatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return summaries, nil
}

// LatestRunID returns the most recently updated run, or ErrNotFound when the
// database holds no runs yet.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var runID string
	err := s.db.QueryRowContext(ctx, "SELECT run_id FROM runs ORDER BY updated_at DESC LIMIT 1").Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no runs recorded", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query latest run: %w", err)
	}
	return runID, nil
}

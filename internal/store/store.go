package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store keeps the history of runs in SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		prompt_file TEXT,
		output_dir TEXT
	);

	CREATE TABLE IF NOT EXISTS prompt_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		idx INTEGER NOT NULL,
		prompt TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT,
		recorded_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS renames (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		old_name TEXT NOT NULL,
		new_name TEXT NOT NULL,
		renamed_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_prompt_events_run ON prompt_events(run_id);
	CREATE INDEX IF NOT EXISTS idx_renames_run ON renames(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// StartRun inserts a new run and returns it with a fresh ID
func (s *Store) StartRun(promptFile, outputDir string) (*Run, error) {
	run := &Run{
		ID:         uuid.NewString(),
		StartedAt:  s.now(),
		PromptFile: promptFile,
		OutputDir:  outputDir,
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, started_at, prompt_file, output_dir)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.PromptFile, run.OutputDir)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// SetPromptFile updates the prompt file once the actual source is known
func (s *Store) SetPromptFile(runID, promptFile string) error {
	_, err := s.db.Exec(`UPDATE runs SET prompt_file = ? WHERE id = ?`, promptFile, runID)
	return err
}

// RecordPrompt stores the outcome of one prompt
func (s *Store) RecordPrompt(runID string, index int, prompt string, outcome Outcome, detail string) error {
	_, err := s.db.Exec(`
		INSERT INTO prompt_events (run_id, idx, prompt, outcome, detail, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, index, prompt, string(outcome), detail, s.now())
	return err
}

// RecordRename stores one file rename
func (s *Store) RecordRename(runID, oldName, newName string) error {
	_, err := s.db.Exec(`
		INSERT INTO renames (run_id, old_name, new_name, renamed_at)
		VALUES (?, ?, ?, ?)
	`, runID, oldName, newName, s.now())
	return err
}

// FinishRun stamps the run's end time
func (s *Store) FinishRun(runID string) error {
	_, err := s.db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, s.now(), runID)
	return err
}

const summaryQuery = `
	SELECT r.id, r.started_at, r.finished_at, r.prompt_file, r.output_dir,
		(SELECT COUNT(*) FROM prompt_events e WHERE e.run_id = r.id AND e.outcome = 'processed'),
		(SELECT COUNT(*) FROM prompt_events e WHERE e.run_id = r.id AND e.outcome = 'skipped'),
		(SELECT COUNT(*) FROM prompt_events e WHERE e.run_id = r.id AND e.outcome = 'failed'),
		(SELECT COUNT(*) FROM renames n WHERE n.run_id = r.id)
	FROM runs r
`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (RunSummary, error) {
	var rs RunSummary
	var finished sql.NullTime
	var promptFile, outputDir sql.NullString

	err := row.Scan(
		&rs.ID, &rs.StartedAt, &finished, &promptFile, &outputDir,
		&rs.Processed, &rs.Skipped, &rs.Failed, &rs.Renamed,
	)
	if err != nil {
		return rs, err
	}
	if finished.Valid {
		rs.FinishedAt = finished.Time
	}
	rs.PromptFile = promptFile.String
	rs.OutputDir = outputDir.String
	return rs, nil
}

// RecentRuns returns the latest runs, newest first, with outcome counts
func (s *Store) RecentRuns(limit int) ([]RunSummary, error) {
	rows, err := s.db.Query(summaryQuery+`
		ORDER BY r.started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RunSummary
	for rows.Next() {
		rs, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rs)
	}

	return results, rows.Err()
}

// GetRun returns one run with its outcome counts. Missing runs yield sql.ErrNoRows.
func (s *Store) GetRun(runID string) (RunSummary, error) {
	return scanSummary(s.db.QueryRow(summaryQuery+` WHERE r.id = ?`, runID))
}

// RunEvents returns a run's prompt events in the order they were recorded
func (s *Store) RunEvents(runID string) ([]PromptEvent, error) {
	rows, err := s.db.Query(`
		SELECT run_id, idx, prompt, outcome, detail, recorded_at
		FROM prompt_events
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []PromptEvent
	for rows.Next() {
		var e PromptEvent
		var outcome string
		var detail sql.NullString

		if err := rows.Scan(&e.RunID, &e.Index, &e.Prompt, &outcome, &detail, &e.RecordedAt); err != nil {
			return nil, err
		}
		e.Outcome = Outcome(outcome)
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// RunRenames returns a run's renames in the order they happened
func (s *Store) RunRenames(runID string) ([]RenameEvent, error) {
	rows, err := s.db.Query(`
		SELECT old_name, new_name, renamed_at
		FROM renames
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var renames []RenameEvent
	for rows.Next() {
		var r RenameEvent
		if err := rows.Scan(&r.From, &r.To, &r.RenamedAt); err != nil {
			return nil, err
		}
		renames = append(renames, r)
	}
	return renames, rows.Err()
}

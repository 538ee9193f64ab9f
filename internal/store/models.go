package store

import "time"

// Outcome is what happened to a prompt during a run.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
	// OutcomeStopped marks the prompt at which the operator ended the run.
	OutcomeStopped Outcome = "stopped"
)

// Run is one interactive session
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	PromptFile string    `json:"prompt_file"`
	OutputDir  string    `json:"output_dir"`
}

// PromptEvent records the outcome of one prompt
type PromptEvent struct {
	RunID      string    `json:"run_id"`
	Index      int       `json:"index"`
	Prompt     string    `json:"prompt"`
	Outcome    Outcome   `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RunSummary is a run with per-outcome prompt counts
type RunSummary struct {
	Run
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Renamed   int `json:"renamed"`
}

// RenameEvent is one video renamed at the end of a run
type RenameEvent struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	RenamedAt time.Time `json:"renamed_at"`
}

// Report is everything recorded about one run
type Report struct {
	RunSummary
	Events  []PromptEvent `json:"events"`
	Renames []RenameEvent `json:"renames"`
}

package stress

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RunResult is the outcome of one demo execution.
type RunResult struct {
	// RunID uniquely identifies this execution.
	RunID string `json:"run_id"`

	// Scenario is the demo that was run.
	Scenario string `json:"scenario"`

	// Attempt counts executions of the same scenario, starting at 1.
	Attempt int `json:"attempt"`

	// Passed reports whether the run met the demo's expectations.
	Passed bool `json:"passed"`

	// DurationMs is the run's wall time in milliseconds.
	DurationMs int64 `json:"duration_ms"`

	// Events is how many trace events the run recorded.
	Events int `json:"events"`

	// Error holds the failure, if any.
	Error string `json:"error,omitempty"`
}

// Report aggregates one stress session.
type Report struct {
	// RunID uniquely identifies the session.
	RunID string `json:"run_id"`

	// Started is when the session began.
	Started time.Time `json:"started"`

	// ElapsedMs is the session's wall time in milliseconds.
	ElapsedMs int64 `json:"elapsed_ms"`

	// Planned is how many runs the configuration asked for.
	Planned int `json:"planned"`

	// Total is how many runs actually executed; fail-fast sessions may
	// stop short of the plan.
	Total int `json:"total"`

	// Passed and Failed partition Total.
	Passed int `json:"passed"`
	Failed int `json:"failed"`

	// Results holds every executed run in completion order.
	Results []RunResult `json:"results"`
}

// WriteFile renders the report as indented JSON at path.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stress report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing stress report: %w", err)
	}
	return nil
}

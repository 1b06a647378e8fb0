package pipeline

import "time"

// Run phases, reported through the status surface. Observers distinguish
// "interrupted by shutdown" from "completed with errors" from "still
// running" by this string alone.
const (
	PhaseIdle                = "idle"
	PhaseFetching            = "fetching"
	PhaseProcessing          = "processing"
	PhaseExtracting          = "extracting"
	PhasePublishing          = "publishing"
	PhaseCompleted           = "completed"
	PhaseCompletedWithErrors = "completed with errors"
	PhaseInterrupted         = "interrupted"
	PhaseFailed              = "failed"
)

// RunStats counts per-run outcomes. Counters only increase while a run
// is in flight.
type RunStats struct {
	Found     int `json:"found"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Published int `json:"published"`
	Saved     int `json:"saved"`
	Errors    int `json:"errors"`
}

// RunState is the observable state of the orchestrator. Snapshot returns
// copies, so observers never share mutable state with the run loop.
type RunState struct {
	RunID             string    `json:"run_id"`
	IsRunning         bool      `json:"is_running"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	Phase             string    `json:"phase"`
	Stats             RunStats  `json:"stats"`
	ShutdownRequested bool      `json:"shutdown_requested"`
	LastError         string    `json:"last_error,omitempty"`
}

// Document is one source item flowing through the pipeline. It lives for
// a single processing step and is discarded after publish or failure.
type Document struct {
	ID      string
	UID     uint32
	Subject string
	Sender  string
	Date    time.Time
	Raw     string
}

package api

import (
	"time"

	"quill/internal/ledger"
	"quill/internal/pipeline"
)

// RunStats mirrors per-run counters in a transport-friendly format.
type RunStats struct {
	Found     int `json:"found"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Published int `json:"published"`
	Saved     int `json:"saved"`
	Errors    int `json:"errors"`
}

// RunStatus describes the current or most recent pipeline run.
type RunStatus struct {
	RunID             string    `json:"runId"`
	IsRunning         bool      `json:"isRunning"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
	Phase             string    `json:"phase"`
	Stats             RunStats  `json:"stats"`
	ShutdownRequested bool      `json:"shutdownRequested"`
	LastError         string    `json:"lastError,omitempty"`
}

// FromRunState converts orchestrator state into the wire representation.
func FromRunState(state pipeline.RunState) RunStatus {
	return RunStatus{
		RunID:             state.RunID,
		IsRunning:         state.IsRunning,
		StartedAt:         state.StartedAt,
		FinishedAt:        state.FinishedAt,
		Phase:             state.Phase,
		Stats:             RunStats(state.Stats),
		ShutdownRequested: state.ShutdownRequested,
		LastError:         state.LastError,
	}
}

// StatusResponse aggregates daemon runtime information for API consumers.
type StatusResponse struct {
	Running         bool      `json:"running"`
	PID             int       `json:"pid"`
	SchedulerPaused bool      `json:"schedulerPaused"`
	NextRunAt       time.Time `json:"nextRunAt,omitempty"`
	LedgerPath      string    `json:"ledgerPath"`
	LockFilePath    string    `json:"lockFilePath"`
	Run             RunStatus `json:"run"`
}

// HealthCheck reports the reachability of one external collaborator.
type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// HealthResponse aggregates collaborator health checks.
type HealthResponse struct {
	Healthy bool          `json:"healthy"`
	Checks  []HealthCheck `json:"checks"`
}

// HistoryRecord describes one processed document.
type HistoryRecord struct {
	DocumentID  string `json:"documentId"`
	Subject     string `json:"subject"`
	Sender      string `json:"sender"`
	Score       int    `json:"score"`
	Status      string `json:"status"`
	PageID      string `json:"pageId,omitempty"`
	ProcessedAt string `json:"processedAt"`
}

// FromLedgerRecord converts a ledger row into the wire representation.
func FromLedgerRecord(record ledger.Record) HistoryRecord {
	return HistoryRecord{
		DocumentID:  record.DocumentID,
		Subject:     record.Subject,
		Sender:      record.Sender,
		Score:       record.Score,
		Status:      string(record.Status),
		PageID:      record.PageID,
		ProcessedAt: record.ProcessedAt.UTC().Format(time.RFC3339),
	}
}

// HistoryResponse wraps recently processed documents.
type HistoryResponse struct {
	Records []HistoryRecord `json:"records"`
}

// StatsResponse provides aggregate ledger statistics.
type StatsResponse struct {
	Total     int     `json:"total"`
	Published int     `json:"published"`
	Partial   int     `json:"partial"`
	Skipped   int     `json:"skipped"`
	Failed    int     `json:"failed"`
	Errors    int     `json:"errors"`
	AvgScore  float64 `json:"avgScore"`
}

// FromLedgerStats converts aggregate ledger counts into the wire representation.
func FromLedgerStats(stats ledger.Stats) StatsResponse {
	return StatsResponse{
		Total:     stats.Total,
		Published: stats.Published,
		Partial:   stats.Partial,
		Skipped:   stats.Skipped,
		Failed:    stats.Failed,
		Errors:    stats.Errors,
		AvgScore:  stats.AvgScore,
	}
}

// RunResponse reports the outcome of a manual run trigger.
type RunResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
}

// SchedulerResponse reports the scheduler pause state.
type SchedulerResponse struct {
	Paused bool `json:"paused"`
}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

// ReloadResponse reports the outcome of a prompt reload.
type ReloadResponse struct {
	Reloaded bool   `json:"reloaded"`
	Message  string `json:"message,omitempty"`
}

// ErrorResponse carries an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

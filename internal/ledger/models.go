// Package ledger persists which source documents have been processed,
// backed by SQLite. It is the deduplication boundary: a document present
// here with a non-failed status is never fetched again.
package ledger

import "time"

// Status records how a document's processing resolved.
type Status string

const (
	// StatusPublished means the remote page was created and every batch
	// landed.
	StatusPublished Status = "published"
	// StatusPartial means the page exists but one or more non-critical
	// batches were lost.
	StatusPartial Status = "partial"
	// StatusSkipped means the document was judged spam or low-value and
	// intentionally not published.
	StatusSkipped Status = "skipped"
	// StatusFailed means processing did not complete; a later run may
	// retry the document from scratch.
	StatusFailed Status = "failed"
)

// Record is one processed-document row.
type Record struct {
	DocumentID  string
	Subject     string
	Sender      string
	Score       int
	Status      Status
	PageID      string
	ProcessedAt time.Time
}

// ErrorRecord is one processing-error row.
type ErrorRecord struct {
	DocumentID string
	Message    string
	CreatedAt  time.Time
}

// Stats aggregates ledger history.
type Stats struct {
	Total     int
	Published int
	Partial   int
	Skipped   int
	Failed    int
	Errors    int
	AvgScore  float64
}

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// IsProcessed reports whether the document has already resolved in a
// prior run. Failed documents are not considered processed so a later
// run can retry them from scratch.
func (s *Store) IsProcessed(ctx context.Context, documentID string) (bool, error) {
	ctx = ensureContext(ctx)
	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT status FROM processed_documents WHERE document_id = ?", documentID,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query processed document: %w", err)
	}
	return Status(status) != StatusFailed, nil
}

// MarkProcessed upserts the document's resolution. Re-running a
// previously failed document overwrites its row.
func (s *Store) MarkProcessed(ctx context.Context, record Record) error {
	if strings.TrimSpace(record.DocumentID) == "" {
		return errors.New("mark processed: document id required")
	}
	processedAt := record.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}
	return s.execWithRetry(ctx, `
		INSERT INTO processed_documents (document_id, subject, sender, score, status, page_id, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			subject = excluded.subject,
			sender = excluded.sender,
			score = excluded.score,
			status = excluded.status,
			page_id = excluded.page_id,
			processed_at = excluded.processed_at`,
		record.DocumentID, record.Subject, record.Sender, record.Score,
		string(record.Status), record.PageID, processedAt.Format(time.RFC3339))
}

// RecordError appends an error entry for the document.
func (s *Store) RecordError(ctx context.Context, documentID, message string) error {
	if strings.TrimSpace(documentID) == "" {
		return errors.New("record error: document id required")
	}
	return s.execWithRetry(ctx,
		"INSERT INTO processing_errors (document_id, message, created_at) VALUES (?, ?, ?)",
		documentID, message, time.Now().UTC().Format(time.RFC3339))
}

// Recent returns the most recently processed documents, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, subject, sender, score, status, page_id, processed_at
		FROM processed_documents
		ORDER BY processed_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent documents: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var status, processedAt string
		if err := rows.Scan(&record.DocumentID, &record.Subject, &record.Sender,
			&record.Score, &status, &record.PageID, &processedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		record.Status = Status(status)
		if ts, parseErr := time.Parse(time.RFC3339, processedAt); parseErr == nil {
			record.ProcessedAt = ts
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// RecentErrors returns the most recent error entries, newest first.
func (s *Store) RecentErrors(ctx context.Context, limit int) ([]ErrorRecord, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, message, created_at
		FROM processing_errors
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query errors: %w", err)
	}
	defer rows.Close()

	var records []ErrorRecord
	for rows.Next() {
		var record ErrorRecord
		var createdAt string
		if err := rows.Scan(&record.DocumentID, &record.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scan error row: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			record.CreatedAt = ts
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Stats aggregates ledger totals.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var stats Stats
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM processed_documents GROUP BY status")
	if err != nil {
		return stats, fmt.Errorf("query status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("scan status count: %w", err)
		}
		stats.Total += count
		switch Status(status) {
		case StatusPublished:
			stats.Published = count
		case StatusPartial:
			stats.Partial = count
		case StatusSkipped:
			stats.Skipped = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		"SELECT AVG(score) FROM processed_documents WHERE status IN (?, ?)",
		string(StatusPublished), string(StatusPartial),
	).Scan(&avg); err != nil {
		return stats, fmt.Errorf("query average score: %w", err)
	}
	if avg.Valid {
		stats.AvgScore = avg.Float64
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM processing_errors").Scan(&stats.Errors); err != nil {
		return stats, fmt.Errorf("query error count: %w", err)
	}
	return stats, nil
}

package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIsProcessedUnknownDocument(t *testing.T) {
	store := testStore(t)
	processed, err := store.IsProcessed(context.Background(), "msg-1")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if processed {
		t.Fatalf("unknown document must not be processed")
	}
}

func TestMarkProcessedRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	record := Record{
		DocumentID: "msg-1",
		Subject:    "Weekly digest",
		Sender:     "news@example.com",
		Score:      72,
		Status:     StatusPublished,
		PageID:     "page-9",
	}
	if err := store.MarkProcessed(ctx, record); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	processed, err := store.IsProcessed(ctx, "msg-1")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Fatalf("published document must be processed")
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recent))
	}
	got := recent[0]
	if got.Subject != record.Subject || got.Score != record.Score || got.Status != StatusPublished || got.PageID != "page-9" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.ProcessedAt.IsZero() {
		t.Fatalf("processed_at must be populated")
	}
}

func TestFailedDocumentRetriable(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.MarkProcessed(ctx, Record{DocumentID: "msg-2", Status: StatusFailed}); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	processed, err := store.IsProcessed(ctx, "msg-2")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if processed {
		t.Fatalf("failed documents must stay retriable")
	}

	// Re-running the document overwrites the failed row.
	if err := store.MarkProcessed(ctx, Record{DocumentID: "msg-2", Status: StatusPublished, Score: 50}); err != nil {
		t.Fatalf("MarkProcessed upsert: %v", err)
	}
	processed, err = store.IsProcessed(ctx, "msg-2")
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Fatalf("upserted document must now be processed")
	}
}

func TestRecordErrorAndStats(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	seed := []Record{
		{DocumentID: "a", Status: StatusPublished, Score: 80},
		{DocumentID: "b", Status: StatusPartial, Score: 60},
		{DocumentID: "c", Status: StatusSkipped, Score: 10},
		{DocumentID: "d", Status: StatusFailed},
	}
	for _, record := range seed {
		if err := store.MarkProcessed(ctx, record); err != nil {
			t.Fatalf("MarkProcessed %s: %v", record.DocumentID, err)
		}
	}
	if err := store.RecordError(ctx, "d", "publish failed"); err != nil {
		t.Fatalf("RecordError: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 4 || stats.Published != 1 || stats.Partial != 1 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Errors != 1 {
		t.Fatalf("expected 1 error, got %d", stats.Errors)
	}
	if stats.AvgScore != 70 {
		t.Fatalf("avg score should cover published+partial only, got %v", stats.AvgScore)
	}

	errs, err := store.RecentErrors(ctx, 5)
	if err != nil {
		t.Fatalf("RecentErrors: %v", err)
	}
	if len(errs) != 1 || errs[0].DocumentID != "d" || errs[0].Message != "publish failed" {
		t.Fatalf("unexpected errors: %+v", errs)
	}
}

func TestRecentOrdering(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		record := Record{
			DocumentID:  id,
			Status:      StatusPublished,
			ProcessedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.MarkProcessed(ctx, record); err != nil {
			t.Fatalf("MarkProcessed: %v", err)
		}
	}
	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].DocumentID != "new" || recent[1].DocumentID != "mid" {
		t.Fatalf("unexpected ordering: %+v", recent)
	}
}

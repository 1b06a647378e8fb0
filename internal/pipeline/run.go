package pipeline

import (
	"context"
	"log/slog"
	"time"

	"quill/internal/clean"
	"quill/internal/ledger"
	"quill/internal/localstore"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/services/notes"
)

func (r *Runner) run(ctx context.Context, runID string) {
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("run started")

	defer func() {
		r.mutate(func(state *RunState) {
			state.IsRunning = false
			state.FinishedAt = time.Now().UTC()
		})
		r.running.Store(false)
	}()

	docs, total, err := r.source.FetchPending(ctx, r.opts.FetchLimit)
	if err != nil {
		logger.Error("fetch failed", logging.Error(err))
		r.mutate(func(state *RunState) {
			state.Phase = PhaseFailed
			state.LastError = err.Error()
		})
		return
	}
	r.mutate(func(state *RunState) {
		state.Stats.Found = len(docs)
		state.Phase = PhaseProcessing
	})
	logger.Info("documents fetched",
		logging.Int("pending", len(docs)),
		logging.Int("total_available", total))

	interrupted := false
	for _, doc := range docs {
		if r.interrupted(ctx) {
			interrupted = true
			break
		}
		if !r.processDocument(ctx, doc) {
			interrupted = true
			break
		}
		r.mutate(func(state *RunState) {
			state.Stats.Processed++
		})
	}

	r.mutate(func(state *RunState) {
		switch {
		case interrupted:
			state.Phase = PhaseInterrupted
		case state.Stats.Errors > 0:
			state.Phase = PhaseCompletedWithErrors
		default:
			state.Phase = PhaseCompleted
		}
	})
	snapshot := r.Snapshot()
	logger.Info("run finished",
		logging.String("phase", snapshot.Phase),
		logging.Int("processed", snapshot.Stats.Processed),
		logging.Int("published", snapshot.Stats.Published),
		logging.Int("skipped", snapshot.Stats.Skipped),
		logging.Int("errors", snapshot.Stats.Errors))
}

// processDocument runs one document through normalize, extract, and
// publish. Any stage failure is recorded against the document and the
// run moves on; a single bad document never aborts the run. It reports
// false when a shutdown request stopped the document before it reached
// a resolution, so the caller leaves it uncounted.
func (r *Runner) processDocument(ctx context.Context, doc Document) bool {
	ctx = services.WithDocumentID(ctx, doc.ID)
	logger := logging.WithContext(ctx, r.logger)

	cleaned := r.normalizer.Normalize(doc.Raw)
	if cleaned == "" {
		r.recordFailure(ctx, doc, "empty document after cleaning", logger)
		return true
	}

	if r.interrupted(ctx) {
		return false
	}
	r.setPhase(PhaseExtracting)
	gist, err := r.extractor.Extract(ctx, doc, cleaned)
	if err != nil {
		r.recordFailure(ctx, doc, "extract: "+err.Error(), logger)
		return true
	}

	if gist.SpamOrIrrelevant || gist.Score < r.opts.MinScore {
		logger.Info("document skipped",
			logging.Int("score", gist.Score),
			logging.Bool("spam", gist.SpamOrIrrelevant))
		r.mutate(func(state *RunState) { state.Stats.Skipped++ })
		r.finalizeDocument(ctx, doc, ledger.Record{
			DocumentID: doc.ID,
			Subject:    doc.Subject,
			Sender:     doc.Sender,
			Score:      gist.Score,
			Status:     ledger.StatusSkipped,
		}, logger)
		return true
	}

	links := gist.MentionedLinks
	if len(links) == 0 {
		links = clean.ExtractURLs(cleaned, r.opts.MaxLinks)
	}
	document := notes.Document{
		Header: notes.PageHeader{
			Title:   gist.Title,
			Summary: gist.Digest,
			Score:   gist.Score,
			Tags:    gist.Tags,
			Source:  doc.Sender,
			Date:    doc.Date,
		},
		Insights: gist.KeyInsights,
		Links:    links,
		Content:  cleaned,
		SourceID: doc.ID,
	}

	if r.interrupted(ctx) {
		return false
	}
	r.setPhase(PhasePublishing)
	blocks := notes.ComposeBlocks(document, r.opts.ContentHeading)
	batches := notes.BatchBlocks(blocks, r.opts.ContentHeading)
	outcome, err := r.publisher.Publish(ctx, document.Header, batches)
	if err != nil || outcome.Aborted {
		message := "publish aborted"
		if err != nil {
			message = "publish: " + err.Error()
		}
		r.recordFailure(ctx, doc, message, logger)
		return true
	}

	status := ledger.StatusPublished
	if outcome.Partial() {
		status = ledger.StatusPartial
		logger.Warn("published with content gaps",
			logging.Int("failed_batches", len(outcome.FailedBatches)))
	}
	r.mutate(func(state *RunState) { state.Stats.Published++ })

	if r.archiver != nil {
		if _, err := r.archiver.Write(localstore.Entry{
			DocumentID: doc.ID,
			Title:      gist.Title,
			Digest:     gist.Digest,
			Score:      gist.Score,
			Tags:       gist.Tags,
			Insights:   gist.KeyInsights,
			Links:      links,
			Sender:     doc.Sender,
			Date:       doc.Date,
			Content:    cleaned,
		}); err != nil {
			logger.Warn("local archive failed", logging.Error(err))
		} else {
			r.mutate(func(state *RunState) { state.Stats.Saved++ })
		}
	}

	r.finalizeDocument(ctx, doc, ledger.Record{
		DocumentID: doc.ID,
		Subject:    doc.Subject,
		Sender:     doc.Sender,
		Score:      gist.Score,
		Status:     status,
		PageID:     outcome.PageID,
	}, logger)
	logger.Info("document published",
		logging.String("page_id", outcome.PageID),
		logging.Int("batches", outcome.Succeeded))
	return true
}

// recordFailure logs the error against the document so a later run can
// retry it. The ledger row stays failed, never processed.
func (r *Runner) recordFailure(ctx context.Context, doc Document, message string, logger *slog.Logger) {
	logger.Error("document failed", logging.String("reason", message))
	r.mutate(func(state *RunState) {
		state.Stats.Errors++
		state.LastError = message
	})
	if err := r.ledger.RecordError(ctx, doc.ID, message); err != nil {
		r.logger.Error("ledger error write failed", logging.Error(err))
	}
	if err := r.ledger.MarkProcessed(ctx, ledger.Record{
		DocumentID: doc.ID,
		Subject:    doc.Subject,
		Sender:     doc.Sender,
		Status:     ledger.StatusFailed,
	}); err != nil {
		r.logger.Error("ledger status write failed", logging.Error(err))
	}
}

// finalizeDocument records the resolution and tells the source the
// message is handled so later searches skip it.
func (r *Runner) finalizeDocument(ctx context.Context, doc Document, record ledger.Record, logger *slog.Logger) {
	if err := r.ledger.MarkProcessed(ctx, record); err != nil {
		logger.Warn("ledger write failed", logging.Error(err))
	}
	if err := r.source.MarkProcessed(ctx, doc); err != nil {
		logger.Warn("source acknowledgement failed", logging.Error(err))
	}
}

package notes

import (
	"context"
	"log/slog"

	"quill/internal/logging"
	"quill/internal/retry"
	"quill/internal/services"
)

// Outcome reports the result of publishing one document. Aborted is set
// when a critical batch could not be delivered; in that case the remote
// page is incomplete and the caller should treat the document as failed.
type Outcome struct {
	PageID        string
	Succeeded     int
	FailedBatches map[int]struct{}
	Aborted       bool
}

// Partial reports whether any non-critical batch was lost while the
// publish as a whole still succeeded.
func (o Outcome) Partial() bool {
	return !o.Aborted && len(o.FailedBatches) > 0
}

// Publisher drives the chunked page upload: one create call for the
// header, then sequential appends, each under the retry policy.
type Publisher struct {
	client  *Client
	policy  retry.Policy
	sleeper retry.Sleeper
	logger  *slog.Logger
}

// PublisherOption customizes the publisher.
type PublisherOption func(*Publisher)

// WithRetryPolicy overrides the default retry schedule.
func WithRetryPolicy(policy retry.Policy) PublisherOption {
	return func(p *Publisher) {
		p.policy = policy
	}
}

// WithSleeper overrides how retry waits are performed (useful for tests).
func WithSleeper(sleeper retry.Sleeper) PublisherOption {
	return func(p *Publisher) {
		p.sleeper = sleeper
	}
}

// NewPublisher constructs a publisher around the destination client.
func NewPublisher(client *Client, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client: client,
		policy: retry.Default,
		logger: logging.NewComponentLogger(logger, "publisher"),
	}
	p.policy.Retryable = services.Retryable
	for _, opt := range opts {
		opt(p)
	}
	if p.policy.Retryable == nil {
		p.policy.Retryable = services.Retryable
	}
	return p
}

// Publish creates the page and appends every batch in order. Batches
// that exhaust their retries are recorded in FailedBatches; a critical
// failure aborts the rest of the upload. When every batch fails the
// outcome is aborted regardless of criticality.
func (p *Publisher) Publish(ctx context.Context, header PageHeader, batches []Batch) (Outcome, error) {
	outcome := Outcome{FailedBatches: map[int]struct{}{}}

	var pageID string
	err := retry.DoWithSleeper(ctx, p.policy, func(ctx context.Context) error {
		var createErr error
		pageID, createErr = p.client.CreatePage(ctx, header)
		return createErr
	}, p.sleeper)
	if err != nil {
		outcome.Aborted = true
		return outcome, err
	}
	outcome.PageID = pageID
	p.logger.Info("page created",
		logging.String("page_id", pageID),
		logging.Int("batches", len(batches)))

	var lastErr error
	for i, batch := range batches {
		appendErr := retry.DoWithSleeper(ctx, p.policy, func(ctx context.Context) error {
			return p.client.AppendBlocks(ctx, pageID, batch.Blocks)
		}, p.sleeper)
		if appendErr == nil {
			outcome.Succeeded++
			continue
		}
		outcome.FailedBatches[i] = struct{}{}
		lastErr = appendErr
		if batch.Critical {
			outcome.Aborted = true
			p.logger.Error("critical batch failed, aborting publish",
				logging.Int(logging.FieldBatch, i),
				logging.Error(appendErr))
			return outcome, appendErr
		}
		p.logger.Warn("batch failed, continuing with a content gap",
			logging.Int(logging.FieldBatch, i),
			logging.Error(appendErr))
	}

	if len(batches) > 0 && outcome.Succeeded == 0 {
		outcome.Aborted = true
		return outcome, lastErr
	}
	return outcome, nil
}

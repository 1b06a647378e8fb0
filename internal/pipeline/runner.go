// Package pipeline drives one execution of fetch, normalize, extract,
// and publish across a batch of source documents. A single background
// worker owns the loop; observers poll a copied state snapshot.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"quill/internal/ledger"
	"quill/internal/localstore"
	"quill/internal/logging"
	"quill/internal/services/llm"
	"quill/internal/services/notes"
)

// ErrAlreadyRunning is returned by Start while a run is in flight. The
// guard is an atomic flag, so a losing caller never blocks.
var ErrAlreadyRunning = errors.New("a run is already in progress")

// Source supplies pending documents. Implementations must not return
// documents already present in the ledger.
type Source interface {
	FetchPending(ctx context.Context, limit int) ([]Document, int, error)
	MarkProcessed(ctx context.Context, doc Document) error
}

// Normalizer converts raw content to cleaned markdown. It is total:
// hostile input degrades to best-effort text, never an error.
type Normalizer interface {
	Normalize(raw string) string
}

// Extractor produces a structured gist from cleaned text.
type Extractor interface {
	Extract(ctx context.Context, doc Document, cleaned string) (llm.Gist, error)
}

// Ledger records per-document outcomes.
type Ledger interface {
	MarkProcessed(ctx context.Context, record ledger.Record) error
	RecordError(ctx context.Context, documentID, message string) error
}

// Publisher uploads one composed document to the destination.
type Publisher interface {
	Publish(ctx context.Context, header notes.PageHeader, batches []notes.Batch) (notes.Outcome, error)
}

// Archiver persists a local copy of each published gist. Optional.
type Archiver interface {
	Write(entry localstore.Entry) (string, error)
}

// Options tune one runner.
type Options struct {
	FetchLimit     int
	MinScore       int
	MaxLinks       int
	ContentHeading string
}

// Runner is the orchestrator. All mutation of the run state happens on
// the worker goroutine; reads go through Snapshot.
type Runner struct {
	opts       Options
	source     Source
	normalizer Normalizer
	extractor  Extractor
	ledger     Ledger
	publisher  Publisher
	archiver   Archiver
	logger     *slog.Logger

	running  atomic.Bool
	shutdown atomic.Bool

	mu    sync.RWMutex
	state RunState

	wg sync.WaitGroup
}

// NewRunner wires the orchestrator. Archiver may be nil.
func NewRunner(opts Options, source Source, normalizer Normalizer, extractor Extractor, led Ledger, publisher Publisher, archiver Archiver, logger *slog.Logger) *Runner {
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = 10
	}
	if opts.ContentHeading == "" {
		opts.ContentHeading = "Original Content"
	}
	if opts.MaxLinks <= 0 {
		opts.MaxLinks = 10
	}
	return &Runner{
		opts:       opts,
		source:     source,
		normalizer: normalizer,
		extractor:  extractor,
		ledger:     led,
		publisher:  publisher,
		archiver:   archiver,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		state:      RunState{Phase: PhaseIdle},
	}
}

// Start launches one run on a background goroutine. It fails fast with
// ErrAlreadyRunning when a run is in flight.
func (r *Runner) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	r.shutdown.Store(false)
	runID := uuid.NewString()

	r.mu.Lock()
	r.state = RunState{
		RunID:     runID,
		IsRunning: true,
		StartedAt: time.Now().UTC(),
		Phase:     PhaseFetching,
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, runID)
	}()
	return nil
}

// RunOnce executes a run synchronously. It shares the single-flight
// guard with Start.
func (r *Runner) RunOnce(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	r.wg.Wait()
	snapshot := r.Snapshot()
	if snapshot.Phase == PhaseFailed && snapshot.LastError != "" {
		return errors.New(snapshot.LastError)
	}
	return nil
}

// RequestShutdown asks the run loop to stop at the next document
// boundary. Idempotent and safe from any goroutine.
func (r *Runner) RequestShutdown() {
	r.shutdown.Store(true)
	r.mu.Lock()
	r.state.ShutdownRequested = true
	r.mu.Unlock()
}

// Snapshot returns a copy of the current run state. It never blocks on
// the run loop.
func (r *Runner) Snapshot() RunState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Wait blocks until the current run (if any) finishes.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Running reports whether a run is in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

func (r *Runner) setPhase(phase string) {
	r.mu.Lock()
	r.state.Phase = phase
	r.mu.Unlock()
}

func (r *Runner) mutate(fn func(*RunState)) {
	r.mu.Lock()
	fn(&r.state)
	r.mu.Unlock()
}

func (r *Runner) interrupted(ctx context.Context) bool {
	return r.shutdown.Load() || ctx.Err() != nil
}

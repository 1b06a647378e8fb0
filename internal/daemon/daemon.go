package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"quill/internal/api"
	"quill/internal/config"
	"quill/internal/ledger"
	"quill/internal/logging"
	"quill/internal/pipeline"
	"quill/internal/services/llm"
)

// HealthProbe checks the reachability of one external collaborator.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Daemon coordinates the scheduler, pipeline runner, and control surface,
// and enforces single-instance execution through a file lock.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *ledger.Store
	runner  *pipeline.Runner
	prompts *llm.PromptSet
	probes  []HealthProbe

	lockPath string
	lock     *flock.Flock

	scheduler *scheduler
	api       *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *ledger.Store, runner *pipeline.Runner, prompts *llm.PromptSet, probes []HealthProbe, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || runner == nil || logger == nil {
		return nil, errors.New("daemon requires config, ledger store, runner, and logger")
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      store,
		runner:     runner,
		prompts:    prompts,
		probes:     probes,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		shutdownCh: make(chan struct{}),
	}
	d.scheduler = newScheduler(cfg.Workflow.RunInterval(), d.scheduledRun, d.logger)

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = server
	return d, nil
}

// Start acquires the instance lock and launches the scheduler and control
// surface.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another quill daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}
	go d.scheduler.run(d.ctx)

	d.running.Store(true)
	d.logger.Info("quill daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the scheduler, waits for any in-flight run to reach a
// document boundary, and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.runner.RequestShutdown()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.runner.Wait()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("quill daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// RequestShutdown asks the daemon host process to exit. Idempotent.
func (d *Daemon) RequestShutdown() {
	d.runner.RequestShutdown()
	d.shutdownOnce.Do(func() { close(d.shutdownCh) })
}

// ShutdownRequested is closed when a shutdown was requested through the
// control surface.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownCh
}

// APIAddr returns the control surface listen address.
func (d *Daemon) APIAddr() string {
	return d.api.Addr()
}

// TriggerRun starts a pipeline run immediately, regardless of scheduler
// pause state.
func (d *Daemon) TriggerRun() (bool, string) {
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := d.runner.Start(ctx); err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			return false, "a run is already in progress"
		}
		return false, err.Error()
	}
	return true, ""
}

func (d *Daemon) scheduledRun(ctx context.Context) {
	if err := d.runner.Start(ctx); err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			d.logger.Debug("scheduled run skipped, previous run still active")
			return
		}
		d.logger.Error("scheduled run failed to start", logging.Error(err))
	}
}

// PauseScheduler suspends timer-triggered runs. Manual triggers keep
// working.
func (d *Daemon) PauseScheduler() {
	d.scheduler.Pause()
	d.logger.Info("scheduler paused")
}

// ResumeScheduler re-enables timer-triggered runs.
func (d *Daemon) ResumeScheduler() {
	d.scheduler.Resume()
	d.logger.Info("scheduler resumed")
}

// ReloadPrompts re-reads the extraction prompt files from disk.
func (d *Daemon) ReloadPrompts() error {
	if d.prompts == nil {
		return errors.New("prompt set unavailable")
	}
	return d.prompts.Reload()
}

// Status returns the current daemon status.
func (d *Daemon) Status() api.StatusResponse {
	return api.StatusResponse{
		Running:         d.running.Load(),
		PID:             os.Getpid(),
		SchedulerPaused: d.scheduler.Paused(),
		NextRunAt:       d.scheduler.NextRun(),
		LedgerPath:      d.store.Path(),
		LockFilePath:    d.lockPath,
		Run:             api.FromRunState(d.runner.Snapshot()),
	}
}

// Health checks each registered collaborator probe.
func (d *Daemon) Health(ctx context.Context) api.HealthResponse {
	response := api.HealthResponse{Healthy: true}
	for _, probe := range d.probes {
		check := api.HealthCheck{Name: probe.Name, Healthy: true}
		if err := probe.Check(ctx); err != nil {
			check.Healthy = false
			check.Detail = err.Error()
			response.Healthy = false
		}
		response.Checks = append(response.Checks, check)
	}
	return response
}

// History returns recently processed documents.
func (d *Daemon) History(ctx context.Context, limit int) ([]api.HistoryRecord, error) {
	records, err := d.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]api.HistoryRecord, 0, len(records))
	for _, record := range records {
		out = append(out, api.FromLedgerRecord(record))
	}
	return out, nil
}

// Stats returns aggregate ledger statistics.
func (d *Daemon) Stats(ctx context.Context) (api.StatsResponse, error) {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		return api.StatsResponse{}, err
	}
	return api.FromLedgerStats(stats), nil
}

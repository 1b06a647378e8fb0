package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"quill/internal/logging"
)

// scheduler fires pipeline runs on a fixed interval. Pausing suppresses
// timer-triggered runs only; manual triggers bypass the scheduler
// entirely.
type scheduler struct {
	interval time.Duration
	trigger  func(ctx context.Context)
	logger   *slog.Logger

	paused atomic.Bool

	mu      sync.Mutex
	nextRun time.Time
}

func newScheduler(interval time.Duration, trigger func(ctx context.Context), logger *slog.Logger) *scheduler {
	return &scheduler{
		interval: interval,
		trigger:  trigger,
		logger:   logger,
	}
}

func (s *scheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.setNextRun(time.Now().Add(s.interval))
	s.logger.Info("scheduler started", logging.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.setNextRun(time.Now().Add(s.interval))
			if s.paused.Load() {
				s.logger.Debug("scheduled run suppressed while paused")
				continue
			}
			s.trigger(ctx)
		}
	}
}

func (s *scheduler) Pause()  { s.paused.Store(true) }
func (s *scheduler) Resume() { s.paused.Store(false) }

func (s *scheduler) Paused() bool {
	return s.paused.Load()
}

func (s *scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

func (s *scheduler) setNextRun(at time.Time) {
	s.mu.Lock()
	s.nextRun = at
	s.mu.Unlock()
}

// Package retry provides a reusable bounded-retry combinator with
// exponential backoff. Callers describe the retry behavior as a Policy
// value so the schedule can be tested in isolation from network code.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes a bounded retry schedule.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries every error.
	Retryable func(error) bool
}

// Default is the publishing retry schedule: five attempts backing off
// 2s, 4s, 8s, 16s, then capped at 30s.
var Default = Policy{
	MaxAttempts: 5,
	BaseDelay:   2 * time.Second,
	Multiplier:  2,
	MaxDelay:    30 * time.Second,
}

// AttemptError records the terminal failure after a policy is exhausted.
type AttemptError struct {
	Attempts int
	Err      error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// HintedDelayError lets an operation suggest the wait before the next
// attempt, typically from a Retry-After response header. The hint is
// still capped by the policy's MaxDelay.
type HintedDelayError struct {
	Delay time.Duration
	Err   error
}

func (e *HintedDelayError) Error() string { return e.Err.Error() }

func (e *HintedDelayError) Unwrap() error { return e.Err }

// Sleeper overrides how waits between attempts are performed. Tests
// install one to avoid real delays.
type Sleeper func(context.Context, time.Duration) error

// Do runs fn under the policy, sleeping between attempts. It returns nil
// on the first success, the original error when it is not retryable, and
// an AttemptError once the policy is exhausted. Context cancellation
// stops the schedule immediately.
func Do(ctx context.Context, policy Policy, fn func(context.Context) error) error {
	return DoWithSleeper(ctx, policy, fn, nil)
}

// DoWithSleeper is Do with an explicit sleeper.
func DoWithSleeper(ctx context.Context, policy Policy, fn func(context.Context) error, sleep Sleeper) error {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	if sleep == nil {
		sleep = timerSleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if policy.Retryable != nil && !policy.Retryable(err) {
			return err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		delay := policy.delay(attempt)
		var hinted *HintedDelayError
		if errors.As(err, &hinted) && hinted.Delay > 0 {
			delay = policy.cap(hinted.Delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return &AttemptError{Attempts: attempts, Err: lastErr}
}

// delay returns the wait after the given 1-based attempt.
func (p Policy) delay(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 2
	}
	delay := base
	for i := 1; i < attempt; i++ {
		next := time.Duration(float64(delay) * multiplier)
		if p.MaxDelay > 0 && next >= p.MaxDelay {
			return p.MaxDelay
		}
		delay = next
	}
	return p.cap(delay)
}

func (p Policy) cap(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func timerSleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

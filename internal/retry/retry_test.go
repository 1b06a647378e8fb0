package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func noSleep(recorded *[]time.Duration) Sleeper {
	return func(_ context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func TestDoStopsOnFirstSuccess(t *testing.T) {
	var delays []time.Duration
	calls := 0
	err := DoWithSleeper(context.Background(), Default, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	}, noSleep(&delays))
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(delays))
	}
}

func TestDoBackoffSchedule(t *testing.T) {
	var delays []time.Duration
	boom := errors.New("boom")
	err := DoWithSleeper(context.Background(), Default, func(context.Context) error {
		return boom
	}, noSleep(&delays))

	var attemptErr *AttemptError
	if !errors.As(err, &attemptErr) {
		t.Fatalf("expected AttemptError, got %v", err)
	}
	if attemptErr.Attempts != 5 {
		t.Fatalf("expected 5 attempts, got %d", attemptErr.Attempts)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("terminal error should wrap the last failure")
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %d (%v)", len(want), len(delays), delays)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Fatalf("delay %d: want %s, got %s", i, d, delays[i])
		}
	}
}

func TestDoCapsDelay(t *testing.T) {
	policy := Policy{MaxAttempts: 7, BaseDelay: 2 * time.Second, Multiplier: 2, MaxDelay: 30 * time.Second}
	var delays []time.Duration
	_ = DoWithSleeper(context.Background(), policy, func(context.Context) error {
		return errors.New("boom")
	}, noSleep(&delays))
	if len(delays) != 6 {
		t.Fatalf("expected 6 sleeps, got %d", len(delays))
	}
	if delays[4] != 30*time.Second || delays[5] != 30*time.Second {
		t.Fatalf("delays past the cap should stay at 30s, got %v", delays)
	}
}

func TestDoNonRetryableReturnsImmediately(t *testing.T) {
	fatal := errors.New("validation")
	policy := Default
	policy.Retryable = func(err error) bool { return !errors.Is(err, fatal) }

	var delays []time.Duration
	calls := 0
	err := DoWithSleeper(context.Background(), policy, func(context.Context) error {
		calls++
		return fatal
	}, noSleep(&delays))

	if !errors.Is(err, fatal) {
		t.Fatalf("expected the original error, got %v", err)
	}
	var attemptErr *AttemptError
	if errors.As(err, &attemptErr) {
		t.Fatalf("non-retryable errors must not be wrapped in AttemptError")
	}
	if calls != 1 || len(delays) != 0 {
		t.Fatalf("expected a single attempt with no sleeps, got calls=%d sleeps=%d", calls, len(delays))
	}
}

func TestDoHonorsHintedDelay(t *testing.T) {
	hint := &HintedDelayError{Delay: 7 * time.Second, Err: errors.New("rate limited")}
	var delays []time.Duration
	calls := 0
	err := DoWithSleeper(context.Background(), Default, func(context.Context) error {
		calls++
		if calls == 1 {
			return hint
		}
		return nil
	}, noSleep(&delays))
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if len(delays) != 1 || delays[0] != 7*time.Second {
		t.Fatalf("expected the hinted 7s delay, got %v", delays)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	sleep := func(context.Context, time.Duration) error {
		cancel()
		return ctx.Err()
	}
	err := DoWithSleeper(ctx, Default, func(context.Context) error {
		calls++
		return errors.New("boom")
	}, sleep)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/freshfold/facility-api/pkg/logger"
)

func testConfig(maxAttempts int, retryable ...error) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     maxAttempts,
		BackoffStrategy: &ConstantBackoff{Interval: time.Millisecond},
		Logger:          logger.NewLogger("error"),
		RetryableErrors: retryable,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0

	err := Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, testConfig(5))

	if err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	failure := errors.New("still broken")

	err := Retry(context.Background(), func() error {
		attempts++
		return failure
	}, testConfig(3))

	if !errors.Is(err, failure) {
		t.Fatalf("Expected wrapped last error, got %v", err)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	transient := errors.New("transient")
	fatal := errors.New("fatal")
	attempts := 0

	err := Retry(context.Background(), func() error {
		attempts++
		return fatal
	}, testConfig(5, transient))

	if !errors.Is(err, fatal) {
		t.Fatalf("Expected the fatal error, got %v", err)
	}

	if attempts != 1 {
		t.Errorf("Expected 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, func() error {
		t.Error("Function should not run after cancellation")
		return nil
	}, testConfig(3))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}

func TestConstantBackoff(t *testing.T) {
	b := &ConstantBackoff{Interval: 50 * time.Millisecond}

	for attempt := 1; attempt <= 3; attempt++ {
		if got := b.NextBackoff(attempt); got != 50*time.Millisecond {
			t.Errorf("Attempt %d: expected 50ms, got %v", attempt, got)
		}
	}
}

func TestExponentialBackoffGrowth(t *testing.T) {
	b := &ExponentialBackoff{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, time.Second}, // capped at MaxInterval
	}

	for _, tc := range tests {
		if got := b.NextBackoff(tc.attempt); got != tc.want {
			t.Errorf("Attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	b := &ExponentialBackoff{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.2,
	}

	for i := 0; i < 50; i++ {
		got := b.NextBackoff(1)

		if got < 100*time.Millisecond || got > 120*time.Millisecond {
			t.Fatalf("Jittered backoff %v outside [100ms, 120ms]", got)
		}
	}
}

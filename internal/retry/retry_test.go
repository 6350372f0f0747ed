package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/kmercier/go-vesync/internal/retry"
)

var errThrottle = errors.New("throttled")

func throttleOnly(err error) bool { return errors.Is(err, errThrottle) }

func TestDoSuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	e := retry.New(retry.Config{
		BaseWait:  time.Millisecond,
		Jitter:    -1,
		Retryable: throttleOnly,
	})

	attempts := 0
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	e := retry.New(retry.Config{
		MaxAttempts: 5,
		BaseWait:    time.Millisecond,
		Jitter:      -1,
		Retryable:   throttleOnly,
	})

	attempts := 0
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errThrottle
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestDoNonRetryableFailsImmediately(t *testing.T) {
	t.Parallel()

	e := retry.New(retry.Config{
		BaseWait:  time.Millisecond,
		Jitter:    -1,
		Retryable: throttleOnly,
	})

	permanent := errors.New("permanent")
	attempts := 0
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Do() error = %v, want %v", err, permanent)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	t.Parallel()

	e := retry.New(retry.Config{
		MaxAttempts: 5,
		BaseWait:    time.Millisecond,
		Jitter:      -1,
		Retryable:   throttleOnly,
	})

	attempts := 0
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		return errThrottle
	})
	if !errors.Is(err, errThrottle) {
		t.Fatalf("Do() error = %v, want %v", err, errThrottle)
	}
	if attempts != 5 {
		t.Errorf("attempts = %d, want 5", attempts)
	}
}

func TestDoBackoffGrowsAndIsCapped(t *testing.T) {
	t.Parallel()

	// The waits between attempts must be monotonically non-decreasing and
	// bounded by MaxWait. Measured indirectly through elapsed wall time:
	// waits of 1, 2, 4, 4 ms for five attempts.
	base := time.Millisecond
	maxWait := 4 * time.Millisecond

	e := retry.New(retry.Config{
		MaxAttempts: 5,
		BaseWait:    base,
		MaxWait:     maxWait,
		Jitter:      -1,
		Retryable:   throttleOnly,
	})

	start := time.Now()
	err := e.Do(context.Background(), func(context.Context) error {
		return errThrottle
	})
	elapsed := time.Since(start)

	if !errors.Is(err, errThrottle) {
		t.Fatalf("Do() error = %v, want %v", err, errThrottle)
	}
	if want := 11 * time.Millisecond; elapsed < want {
		t.Errorf("elapsed = %v, want >= %v", elapsed, want)
	}
}

func TestDoNilRetryablePropagates(t *testing.T) {
	t.Parallel()

	e := retry.New(retry.Config{BaseWait: time.Millisecond, Jitter: -1})

	attempts := 0
	err := e.Do(context.Background(), func(context.Context) error {
		attempts++
		return errThrottle
	})
	if !errors.Is(err, errThrottle) {
		t.Fatalf("Do() error = %v, want %v", err, errThrottle)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestDoContextCancelDuringBackoff(t *testing.T) {
	t.Parallel()

	e := retry.New(retry.Config{
		MaxAttempts: 3,
		BaseWait:    time.Minute,
		Jitter:      -1,
		Retryable:   throttleOnly,
	})

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- e.Do(ctx, func(context.Context) error {
			attempts++
			return errThrottle
		})
	}()

	// Let the first attempt fail, then cancel during the backoff wait.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do() did not return after context cancellation")
	}

	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

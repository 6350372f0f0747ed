// Package retry executes an operation with bounded exponential backoff.
// It knows nothing about HTTP or the vendor protocol: the caller supplies a
// predicate that decides which failures are worth retrying (in practice,
// throttle rejections).
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultMaxAttempts is the total number of attempts, first try included.
	DefaultMaxAttempts = 5

	// DefaultBaseWait is the backoff before the first retry; each further
	// retry doubles it.
	DefaultBaseWait = time.Second

	// DefaultMaxWait caps the exponential backoff.
	DefaultMaxWait = 60 * time.Second

	// DefaultJitter is the upper bound of the random delay added to every
	// backoff wait.
	DefaultJitter = time.Second
)

// ErrMaxRetries reports that the attempt budget was exhausted without the
// operation ever returning. The loop structure makes this unreachable; it
// exists so the terminal state has a distinct failure kind.
var ErrMaxRetries = errors.New("vesync: max retries reached")

// Config configures an Executor. Zero fields take the package defaults.
type Config struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int

	// BaseWait is the backoff before the first retry.
	BaseWait time.Duration

	// MaxWait caps the exponential backoff.
	MaxWait time.Duration

	// Jitter is the upper bound of the random delay added to each wait.
	// Negative disables jitter.
	Jitter time.Duration

	// Retryable reports whether a failure is worth retrying. A nil
	// predicate retries nothing.
	Retryable func(error) bool
}

// Executor runs operations with retry.
type Executor struct {
	cfg Config

	// injectable for tests
	sleep func(context.Context, time.Duration) error
}

// New creates an Executor with the given configuration.
func New(cfg Config) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseWait <= 0 {
		cfg.BaseWait = DefaultBaseWait
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.Jitter == 0 {
		cfg.Jitter = DefaultJitter
	}

	return &Executor{
		cfg:   cfg,
		sleep: sleepCtx,
	}
}

// Do runs op up to MaxAttempts times. Retryable failures wait out an
// exponential backoff between attempts; any other failure, or a retryable
// one with no attempts left, is returned as-is.
func (e *Executor) Do(ctx context.Context, op func(context.Context) error) error {
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		if e.cfg.Retryable == nil || !e.cfg.Retryable(err) {
			return err
		}

		if attempt == e.cfg.MaxAttempts-1 {
			return err
		}

		if serr := e.sleep(ctx, e.wait(attempt)); serr != nil {
			return errors.Wrap(serr, "backoff wait")
		}
	}

	return ErrMaxRetries
}

// wait computes the backoff before the retry that follows the given attempt
// index: min(base * 2^attempt, max) plus random jitter in [0, Jitter).
func (e *Executor) wait(attempt int) time.Duration {
	wait := e.cfg.BaseWait << uint(attempt)
	if wait > e.cfg.MaxWait || wait <= 0 {
		wait = e.cfg.MaxWait
	}

	if e.cfg.Jitter > 0 {
		wait += time.Duration(rand.Int63n(int64(e.cfg.Jitter)))
	}

	return wait
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		//nolint:wrapcheck // callers wrap with the wait's purpose
		return ctx.Err()
	}
}

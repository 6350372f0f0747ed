// Package pacing enforces the vendor cloud's undocumented request limits:
// a minimum spacing between consecutive requests and a cap on requests per
// rolling one-minute window. The vendor bans accounts that exceed either, so
// the pacer runs before every attempt, retries included.
package pacing

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

const (
	// DefaultInterval is the minimum spacing between consecutive requests.
	DefaultInterval = time.Second

	// DefaultLimit is the maximum number of requests per window.
	DefaultLimit = 60

	// DefaultWindow is the length of the request-counting window.
	DefaultWindow = time.Minute
)

// Pacer paces outbound requests. The zero value is not usable; use New.
type Pacer struct {
	spacing *rate.Limiter
	limit   int
	window  time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int

	// injectable for tests
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// Config configures a Pacer. Zero fields take the package defaults.
type Config struct {
	// Interval is the minimum spacing between consecutive requests.
	Interval time.Duration

	// Limit is the maximum number of requests per Window.
	Limit int

	// Window is the length of the request-counting window.
	Window time.Duration
}

// New creates a Pacer with the given configuration.
func New(cfg Config) *Pacer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	return &Pacer{
		// Burst of one: the first request passes immediately, every
		// subsequent one waits out the full interval.
		spacing: rate.NewLimiter(rate.Every(cfg.Interval), 1),
		limit:   cfg.Limit,
		window:  cfg.Window,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Throttle blocks until the next request may be issued, then records that a
// request is about to be issued. Every call counts against the window budget
// whether or not the request that follows succeeds. The only error it can
// return is the context's.
func (p *Pacer) Throttle(ctx context.Context) error {
	if err := p.spacing.Wait(ctx); err != nil {
		return errors.Wrap(err, "request spacing wait")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.windowStart.IsZero() || now.Sub(p.windowStart) >= p.window {
		p.windowStart = now
		p.count = 0
	}

	if p.count >= p.limit {
		// Budget exhausted: wait out the remainder of the window.
		remaining := p.window - now.Sub(p.windowStart)
		if err := p.sleep(ctx, remaining); err != nil {
			return errors.Wrap(err, "window boundary wait")
		}
		p.windowStart = p.now()
		p.count = 0
	}

	p.count++

	return nil
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

package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/sitecrawl"
	"golang.org/x/time/rate"
)

var _ sitecrawl.Limiter = (*Limiter)(nil)

// Limiter spaces out requests using a token bucket with a burst of 1.
// A single Limiter is shared by every component that issues requests
// during a run, so any two consecutive requests are at least the delay
// apart regardless of which worker makes them.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	delay   time.Duration
	last    time.Time // when the most recent request was let through
}

// NewLimiter creates a Limiter allowing one request per delay.
// The first request is never delayed. A zero delay disables limiting.
func NewLimiter(delay time.Duration) *Limiter {
	return &Limiter{
		limiter: rate.NewLimiter(limitFor(delay), 1),
		delay:   delay,
	}
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

// Wait blocks until the next request may be issued.
// Returns an error if the context is canceled before the wait completes.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	limiter := l.limiter
	l.mu.Unlock()

	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	l.mu.Lock()
	l.last = time.Now()
	l.mu.Unlock()
	return nil
}

// SetDelay changes the spacing between requests. The next request waits
// until delay has passed since the previous one. Call it between requests;
// waiters already blocked keep the old spacing.
func (l *Limiter) SetDelay(delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter := rate.NewLimiter(limitFor(delay), 1)
	if !l.last.IsZero() {
		// Spend the token at the previous request so spacing counts from it.
		limiter.ReserveN(l.last, 1)
	}
	l.limiter = limiter
	l.delay = delay
}

// Delay returns the minimum spacing between requests.
func (l *Limiter) Delay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.delay
}

// EffectiveDelay returns the larger of the configured delay and the
// Crawl-delay a site publishes in robots.txt.
func EffectiveDelay(configured, robots time.Duration) time.Duration {
	return max(configured, robots)
}

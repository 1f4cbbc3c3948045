package mock

import (
	"context"
	"time"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.Limiter = (*Limiter)(nil)

// Limiter is a mock implementation of sitecrawl.Limiter.
type Limiter struct {
	WaitFn func(ctx context.Context) error
}

func (l *Limiter) Wait(ctx context.Context) error {
	return l.WaitFn(ctx)
}

var _ sitecrawl.RobotsPolicy = (*RobotsPolicy)(nil)

// RobotsPolicy is a mock implementation of sitecrawl.RobotsPolicy.
type RobotsPolicy struct {
	CrawlDelayFn func(ctx context.Context, siteURL string) time.Duration
	AllowedFn    func(ctx context.Context, rawURL string) bool
}

func (p *RobotsPolicy) CrawlDelay(ctx context.Context, siteURL string) time.Duration {
	return p.CrawlDelayFn(ctx, siteURL)
}

func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	return p.AllowedFn(ctx, rawURL)
}

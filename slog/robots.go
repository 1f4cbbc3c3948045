package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure LoggingRobotsPolicy implements sitecrawl.RobotsPolicy.
var _ sitecrawl.RobotsPolicy = (*LoggingRobotsPolicy)(nil)

// LoggingRobotsPolicy wraps a RobotsPolicy and logs its decisions.
type LoggingRobotsPolicy struct {
	next   sitecrawl.RobotsPolicy
	logger *slog.Logger
}

// NewLoggingRobotsPolicy creates a new LoggingRobotsPolicy.
func NewLoggingRobotsPolicy(next sitecrawl.RobotsPolicy, logger *slog.Logger) *LoggingRobotsPolicy {
	return &LoggingRobotsPolicy{next: next, logger: logger}
}

// CrawlDelay delegates to the wrapped policy and logs the stated delay.
func (p *LoggingRobotsPolicy) CrawlDelay(ctx context.Context, siteURL string) time.Duration {
	d := p.next.CrawlDelay(ctx, siteURL)
	p.logger.Info("robots crawl delay", "url", siteURL, "delay", d)
	return d
}

// Allowed delegates to the wrapped policy and logs disallowed URLs.
func (p *LoggingRobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	ok := p.next.Allowed(ctx, rawURL)
	if !ok {
		p.logger.Info("robots disallowed", "url", rawURL)
	}
	return ok
}

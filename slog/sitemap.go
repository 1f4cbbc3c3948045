package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure LoggingSitemapResolver implements sitecrawl.SitemapResolver.
var _ sitecrawl.SitemapResolver = (*LoggingSitemapResolver)(nil)

// LoggingSitemapResolver wraps a SitemapResolver with logging.
type LoggingSitemapResolver struct {
	next   sitecrawl.SitemapResolver
	logger *slog.Logger
}

// NewLoggingSitemapResolver creates a new LoggingSitemapResolver.
func NewLoggingSitemapResolver(next sitecrawl.SitemapResolver, logger *slog.Logger) *LoggingSitemapResolver {
	return &LoggingSitemapResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs the operation.
func (s *LoggingSitemapResolver) Resolve(ctx context.Context, rootURL string) (urls []string, err error) {
	defer func(begin time.Time) {
		s.logger.Info("sitemap resolution",
			"url", rootURL,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Resolve(ctx, rootURL)
}

package slog

import (
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure LoggingExtractor implements sitecrawl.Extractor.
var _ sitecrawl.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with logging.
type LoggingExtractor struct {
	next   sitecrawl.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next sitecrawl.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs text size and link count.
func (e *LoggingExtractor) Extract(markup, sourceURL string) (ext *sitecrawl.Extraction, err error) {
	defer func(begin time.Time) {
		var textBytes, links int
		if ext != nil {
			textBytes, links = len(ext.Text), len(ext.Links)
		}
		e.logger.Info("extract",
			"url", sourceURL,
			"bytes", textBytes,
			"links", links,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Extract(markup, sourceURL)
}

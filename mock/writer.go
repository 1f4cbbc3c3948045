package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.ResultWriter = (*ResultWriter)(nil)

// ResultWriter is a mock implementation of sitecrawl.ResultWriter.
type ResultWriter struct {
	WriteFn func(ctx context.Context, result *sitecrawl.CrawlResult) error
}

func (w *ResultWriter) Write(ctx context.Context, result *sitecrawl.CrawlResult) error {
	return w.WriteFn(ctx, result)
}

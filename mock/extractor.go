package mock

import "github.com/fwojciec/sitecrawl"

var _ sitecrawl.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of sitecrawl.Extractor.
type Extractor struct {
	ExtractFn func(markup, sourceURL string) (*sitecrawl.Extraction, error)
}

func (e *Extractor) Extract(markup, sourceURL string) (*sitecrawl.Extraction, error) {
	return e.ExtractFn(markup, sourceURL)
}

// Package fs provides file-based storage for crawl output.
package fs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fwojciec/sitecrawl"
)

// Ensure ResultWriter implements sitecrawl.ResultWriter at compile time.
var _ sitecrawl.ResultWriter = (*ResultWriter)(nil)

// ResultWriter writes the crawl output as a single text file.
// The file is written to path.tmp and renamed into place, so readers see
// either the previous artifact or the complete new one.
type ResultWriter struct {
	path string
}

// NewResultWriter creates a new ResultWriter for the given path.
func NewResultWriter(path string) *ResultWriter {
	return &ResultWriter{path: path}
}

// Write renders the result records and stores them at the output path.
func (w *ResultWriter) Write(ctx context.Context, result *sitecrawl.CrawlResult) error {
	if result == nil {
		return sitecrawl.Errorf(sitecrawl.EINVALID, "crawl result required")
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sitecrawl.FormatRecords(result.Records)), 0644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

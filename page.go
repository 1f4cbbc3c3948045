package sitecrawl

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// ProvenancePrefix and ProvenanceSuffix delimit the source URL in the line
// that precedes each page's text in the crawl output.
const (
	ProvenancePrefix = "--- Content from: "
	ProvenanceSuffix = " ---"
)

// PageRecord is the result of processing one crawled URL.
type PageRecord struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	Links       []string  `json:"links,omitempty"`
	ContentHash string    `json:"contentHash"`
	Position    int       `json:"position"` // visit order within the run
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Validate returns an error if the record contains invalid fields.
func (r *PageRecord) Validate() error {
	if r.URL == "" {
		return Errorf(EINVALID, "page record URL required")
	}
	if r.Position < 0 {
		return Errorf(EINVALID, "page record position must not be negative")
	}
	return nil
}

// CrawlResult is the aggregate of a completed crawl run.
type CrawlResult struct {
	RunID   string
	Records []*PageRecord // visit order
	Visited int
	Failed  int
	Skipped int // out of scope, disallowed by robots.txt or not markup
}

// ResultWriter persists the final crawl output.
type ResultWriter interface {
	// Write stores the result as a single artifact. Either the whole
	// artifact is written or none of it is.
	Write(ctx context.Context, result *CrawlResult) error
}

// ProvenanceLine returns the line identifying url as the source of the
// text that follows it.
func ProvenanceLine(url string) string {
	return ProvenancePrefix + url + ProvenanceSuffix
}

// FormatRecord renders a single record as its provenance line followed by
// the record text and a trailing newline.
func FormatRecord(r *PageRecord) string {
	return ProvenanceLine(r.URL) + "\n" + r.Text + "\n"
}

// FormatRecords renders records in order, separated by blank lines.
func FormatRecords(records []*PageRecord) string {
	if len(records) == 0 {
		return ""
	}

	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, FormatRecord(r))
	}
	return strings.Join(parts, "\n")
}

// ParsedRecord is a page block recovered from crawl output.
type ParsedRecord struct {
	URL  string
	Text string
}

var provenanceRe = regexp.MustCompile(`(?m)^--- Content from: (.+) ---$`)

// ParseRecords splits crawl output back into per-page blocks by their
// provenance lines. Text before the first provenance line is ignored.
func ParseRecords(output string) []ParsedRecord {
	locs := provenanceRe.FindAllStringSubmatchIndex(output, -1)
	if len(locs) == 0 {
		return nil
	}

	records := make([]ParsedRecord, 0, len(locs))
	for i, loc := range locs {
		start := loc[1]
		end := len(output)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimPrefix(output[start:end], "\n")
		records = append(records, ParsedRecord{
			URL:  output[loc[2]:loc[3]],
			Text: strings.TrimRight(body, "\n"),
		})
	}
	return records
}

var (
	provenanceLineRe = regexp.MustCompile(`(?m)^--- Content from:.*? ---\n?`)
	taggedFragmentRe = regexp.MustCompile(`\[(?:ALT|TITLE|INPUT_VALUE|TEXTAREA|OPTION):.*?\]`)
	blankLinesRe     = regexp.MustCompile(`\n\s*\n`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// CleanForEmbedding prepares crawl output for chunking: provenance lines
// and bracket-tagged fragments are removed and whitespace is collapsed to
// single spaces.
func CleanForEmbedding(output string) string {
	s := provenanceLineRe.ReplaceAllString(output, "")
	s = taggedFragmentRe.ReplaceAllString(s, "")
	s = blankLinesRe.ReplaceAllString(s, "\n")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

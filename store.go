package sitecrawl

import (
	"context"
	"time"
)

// Page is a crawled page rendered as Markdown for the local mirror.
type Page struct {
	URL     string
	Title   string
	Content string // Markdown
}

// PageStore persists pages to storage with atomic semantics.
// Save writes to a temporary location; Commit makes changes permanent;
// Abort discards pending changes.
type PageStore interface {
	Save(ctx context.Context, page *Page) error
	Commit() error
	Abort() error
}

// RunStatus is the lifecycle state of a crawl run.
type RunStatus string

// Run states.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCanceled  RunStatus = "canceled"
)

// Run is the journal entry for one crawl run.
type Run struct {
	ID         string    `json:"id"`
	SitemapURL string    `json:"sitemapUrl"`
	BaseURL    string    `json:"baseUrl"`
	Status     RunStatus `json:"status"`
	Visited    int       `json:"visited"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Validate returns an error if the run contains invalid fields.
func (r *Run) Validate() error {
	if r.BaseURL == "" {
		return Errorf(EINVALID, "run base URL required")
	}
	if r.SitemapURL == "" {
		return Errorf(EINVALID, "run sitemap URL required")
	}
	return nil
}

// RunJournal records crawl progress as it happens so that partial
// results survive an interrupted run.
type RunJournal interface {
	// CreateRun starts a new run. The run ID is assigned if empty.
	CreateRun(ctx context.Context, run *Run) error

	// CreateRecord appends a page record to a run.
	// Returns ENOTFOUND if the run does not exist.
	CreateRecord(ctx context.Context, runID string, record *PageRecord) error

	// FinishRun stores the final status and counters of a run.
	// Returns ENOTFOUND if the run does not exist.
	FinishRun(ctx context.Context, run *Run) error
}

// RunService represents a service for managing crawl runs.
type RunService interface {
	RunJournal

	// FindRunByID retrieves a run by ID.
	// Returns ENOTFOUND if run does not exist.
	FindRunByID(ctx context.Context, id string) (*Run, error)

	// FindRuns retrieves runs matching the filter, most recent first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// FindRecords retrieves the records of a run in visit order.
	FindRecords(ctx context.Context, runID string) ([]*PageRecord, error)

	// DeleteRun permanently removes a run and its records.
	// Returns ENOTFOUND if run does not exist.
	DeleteRun(ctx context.Context, id string) error
}

// RunFilter represents a filter for FindRuns.
type RunFilter struct {
	ID      *string    `json:"id"`
	BaseURL *string    `json:"baseUrl"`
	Status  *RunStatus `json:"status"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

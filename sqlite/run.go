package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ sitecrawl.RunService = (*RunService)(nil)

// RunService implements sitecrawl.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun inserts a new run. ID, Status and StartedAt are filled in when
// empty.
func (s *RunService) CreateRun(ctx context.Context, run *sitecrawl.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = sitecrawl.RunRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, sitemap_url, base_url, status, visited, failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.SitemapURL, run.BaseURL, string(run.Status), run.Visited, run.Failed,
		formatTime(run.StartedAt), formatTime(run.FinishedAt))

	return err
}

// CreateRecord appends a page record to a run.
func (s *RunService) CreateRecord(ctx context.Context, runID string, record *sitecrawl.PageRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if err := s.runExists(ctx, runID); err != nil {
		return err
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.FetchedAt.IsZero() {
		record.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, run_id, url, title, text, links, content_hash, position, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, runID, record.URL, record.Title, record.Text, strings.Join(record.Links, "\n"),
		record.ContentHash, record.Position, formatTime(record.FetchedAt))

	return err
}

// FinishRun stores the final status, counters and finish time of a run.
func (s *RunService) FinishRun(ctx context.Context, run *sitecrawl.Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, visited = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`, string(run.Status), run.Visited, run.Failed, formatTime(run.FinishedAt), run.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sitecrawl.Errorf(sitecrawl.ENOTFOUND, "run not found")
	}
	return nil
}

// FindRunByID retrieves a run by ID.
func (s *RunService) FindRunByID(ctx context.Context, id string) (*sitecrawl.Run, error) {
	runs, err := s.FindRuns(ctx, sitecrawl.RunFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "run not found")
	}
	return runs[0], nil
}

// FindRuns retrieves runs matching the filter, most recent first.
func (s *RunService) FindRuns(ctx context.Context, filter sitecrawl.RunFilter) ([]*sitecrawl.Run, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, sitemap_url, base_url, status, visited, failed, started_at, finished_at FROM runs WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.BaseURL != nil {
		query.WriteString(" AND base_url = ?")
		args = append(args, *filter.BaseURL)
	}
	if filter.Status != nil {
		query.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*sitecrawl.Run
	for rows.Next() {
		var run sitecrawl.Run
		var status, startedAt, finishedAt string

		if err := rows.Scan(&run.ID, &run.SitemapURL, &run.BaseURL, &status, &run.Visited, &run.Failed,
			&startedAt, &finishedAt); err != nil {
			return nil, err
		}
		run.Status = sitecrawl.RunStatus(status)

		var parseErr error
		if run.StartedAt, parseErr = parseTime(startedAt, "started_at"); parseErr != nil {
			return nil, parseErr
		}
		if run.FinishedAt, parseErr = parseTime(finishedAt, "finished_at"); parseErr != nil {
			return nil, parseErr
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// FindRecords retrieves the records of a run in visit order.
func (s *RunService) FindRecords(ctx context.Context, runID string) ([]*sitecrawl.PageRecord, error) {
	if err := s.runExists(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, title, text, links, content_hash, position, fetched_at
		FROM records
		WHERE run_id = ?
		ORDER BY position, rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*sitecrawl.PageRecord
	for rows.Next() {
		var record sitecrawl.PageRecord
		var links, fetchedAt string

		if err := rows.Scan(&record.ID, &record.URL, &record.Title, &record.Text, &links,
			&record.ContentHash, &record.Position, &fetchedAt); err != nil {
			return nil, err
		}
		if links != "" {
			record.Links = strings.Split(links, "\n")
		}

		var parseErr error
		if record.FetchedAt, parseErr = parseTime(fetchedAt, "fetched_at"); parseErr != nil {
			return nil, parseErr
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// DeleteRun permanently removes a run and its records.
func (s *RunService) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return sitecrawl.Errorf(sitecrawl.ENOTFOUND, "run not found")
	}

	return nil
}

func (s *RunService) runExists(ctx context.Context, id string) error {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM runs WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return sitecrawl.Errorf(sitecrawl.ENOTFOUND, "run not found")
	}
	return err
}

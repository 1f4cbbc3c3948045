package main_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/sitecrawl"
	main "github.com/fwojciec/sitecrawl/cmd/sitecrawl"
	"github.com/fwojciec/sitecrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(runs sitecrawl.RunService) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
		Runs:   runs,
	}, stdout, stderr
}

func TestRunsCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("lists runs with ID, status, counters and base URL", func(t *testing.T) {
		t.Parallel()

		var gotFilter sitecrawl.RunFilter
		runs := &mock.RunService{
			FindRunsFn: func(_ context.Context, filter sitecrawl.RunFilter) ([]*sitecrawl.Run, error) {
				gotFilter = filter
				return []*sitecrawl.Run{
					{
						ID:        "run-123",
						BaseURL:   "https://example.com/",
						Status:    sitecrawl.RunCompleted,
						Visited:   42,
						Failed:    3,
						StartedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
					},
				}, nil
			},
		}
		deps, stdout, _ := newDeps(runs)

		err := (&main.RunsCmd{Base: "https://example.com", Limit: 5}).Run(deps)

		require.NoError(t, err)
		output := stdout.String()
		assert.Contains(t, output, "run-123")
		assert.Contains(t, output, "completed")
		assert.Contains(t, output, "visited=42 failed=3")
		assert.Contains(t, output, "https://example.com/")
		require.NotNil(t, gotFilter.BaseURL)
		assert.Equal(t, "https://example.com/", *gotFilter.BaseURL)
		assert.Equal(t, 5, gotFilter.Limit)
	})

	t.Run("shows hint when there are no runs", func(t *testing.T) {
		t.Parallel()

		runs := &mock.RunService{
			FindRunsFn: func(_ context.Context, _ sitecrawl.RunFilter) ([]*sitecrawl.Run, error) {
				return nil, nil
			},
		}
		deps, stdout, _ := newDeps(runs)

		err := (&main.RunsCmd{}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "No runs found")
	})

	t.Run("reports lookup errors", func(t *testing.T) {
		t.Parallel()

		runs := &mock.RunService{
			FindRunsFn: func(_ context.Context, _ sitecrawl.RunFilter) ([]*sitecrawl.Run, error) {
				return nil, errors.New("database locked")
			},
		}
		deps, _, stderr := newDeps(runs)

		err := (&main.RunsCmd{}).Run(deps)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error:")
	})
}

func TestExportCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("writes journaled records as the text artifact", func(t *testing.T) {
		t.Parallel()

		runs := &mock.RunService{
			FindRecordsFn: func(_ context.Context, runID string) ([]*sitecrawl.PageRecord, error) {
				assert.Equal(t, "run-1", runID)
				return []*sitecrawl.PageRecord{
					{URL: "https://example.com/", Text: "Home"},
					{URL: "https://example.com/about", Text: "About"},
				}, nil
			},
		}
		deps, stdout, _ := newDeps(runs)
		path := filepath.Join(t.TempDir(), "export.txt")

		err := (&main.ExportCmd{RunID: "run-1", Output: path}).Run(deps)

		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t,
			"--- Content from: https://example.com/ ---\nHome\n\n--- Content from: https://example.com/about ---\nAbout\n",
			string(data))
		assert.Contains(t, stdout.String(), "Exported 2 pages")
	})

	t.Run("reports unknown run", func(t *testing.T) {
		t.Parallel()

		runs := &mock.RunService{
			FindRecordsFn: func(_ context.Context, _ string) ([]*sitecrawl.PageRecord, error) {
				return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "run not found")
			},
		}
		deps, _, stderr := newDeps(runs)

		err := (&main.ExportCmd{RunID: "missing", Output: filepath.Join(t.TempDir(), "out.txt")}).Run(deps)

		assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
		assert.Contains(t, stderr.String(), "run not found")
	})
}

func TestDeleteCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("requires force flag", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps(&mock.RunService{})

		err := (&main.DeleteCmd{RunID: "run-1"}).Run(deps)

		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
		assert.Contains(t, stderr.String(), "--force")
	})

	t.Run("deletes run", func(t *testing.T) {
		t.Parallel()

		var deleted string
		runs := &mock.RunService{
			DeleteRunFn: func(_ context.Context, id string) error {
				deleted = id
				return nil
			},
		}
		deps, stdout, _ := newDeps(runs)

		err := (&main.DeleteCmd{RunID: "run-1", Force: true}).Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "run-1", deleted)
		assert.Contains(t, stdout.String(), "Deleted run run-1")
	})
}

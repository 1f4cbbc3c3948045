package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Story: Atomic Markdown Mirror
// The mirror uses a temp directory for atomic updates

func TestMirrorStore_SaveWritesToTempDirectory(t *testing.T) {
	t.Parallel()

	// Given a store targeting a directory
	base := t.TempDir()
	store := fs.NewMirrorStore(base, "mirror")

	// When I save a page
	err := store.Save(context.Background(), &sitecrawl.Page{
		URL:     "https://example.com/docs/api",
		Title:   "API Reference",
		Content: "# API\n\nWelcome to the API.",
	})

	// Then the file exists in the temp directory only
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "mirror.tmp", "docs", "api.md"))
	require.NoError(t, err, "file should exist in temp directory")
	_, err = os.Stat(filepath.Join(base, "mirror", "docs", "api.md"))
	assert.True(t, os.IsNotExist(err), "final directory should not exist until commit")
}

func TestMirrorStore_CommitReplacesFinalDirectory(t *testing.T) {
	t.Parallel()

	// Given a previous mirror with a stale page
	base := t.TempDir()
	stale := filepath.Join(base, "mirror", "stale.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	// And a store with a new saved page
	store := fs.NewMirrorStore(base, "mirror")
	store.Now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, store.Save(context.Background(), &sitecrawl.Page{
		URL:     "https://example.com/",
		Title:   "Home",
		Content: "# Home",
	}))

	// When I commit
	require.NoError(t, store.Commit())

	// Then the new page replaces the old mirror
	data, err := os.ReadFile(filepath.Join(base, "mirror", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, "---\nsource: https://example.com/\ntitle: Home\ncrawled: 2026-03-01\n---\n\n# Home", string(data))
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "mirror.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestMirrorStore_CommitWithoutPages(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store := fs.NewMirrorStoreAt(filepath.Join(base, "mirror"))

	require.NoError(t, store.Commit())

	info, err := os.Stat(filepath.Join(base, "mirror"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMirrorStore_AbortDiscardsPages(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	store := fs.NewMirrorStore(base, "mirror")
	require.NoError(t, store.Save(context.Background(), &sitecrawl.Page{URL: "https://example.com/a"}))

	require.NoError(t, store.Abort())

	_, err := os.Stat(filepath.Join(base, "mirror.tmp"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "mirror"))
	assert.True(t, os.IsNotExist(err))
}

func TestURLToPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com", "index.md"},
		{"https://example.com/", "index.md"},
		{"https://example.com/docs/", "docs/index.md"},
		{"https://example.com/docs/api/users", "docs/api/users.md"},
		{"https://example.com/about?lang=en", "about.md"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()

			got, err := fs.URLToPath(tt.url)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects paths escaping the mirror", func(t *testing.T) {
		t.Parallel()

		_, err := fs.URLToPath("https://example.com/../../etc/passwd")

		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	})
}

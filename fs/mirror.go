package fs

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure MirrorStore implements sitecrawl.PageStore at compile time.
var _ sitecrawl.PageStore = (*MirrorStore)(nil)

// MirrorStore implements sitecrawl.PageStore with atomic update semantics.
// Pages are saved to a temporary directory, then moved atomically on Commit.
type MirrorStore struct {
	baseDir string
	name    string

	// Now returns the crawl date written to the frontmatter.
	Now func() time.Time
}

// NewMirrorStore creates a new MirrorStore.
// baseDir is the parent directory, name is the output directory name.
// Files are saved to baseDir/name.tmp and moved to baseDir/name on Commit.
func NewMirrorStore(baseDir, name string) *MirrorStore {
	return &MirrorStore{
		baseDir: baseDir,
		name:    name,
		Now:     time.Now,
	}
}

// NewMirrorStoreAt creates a MirrorStore whose committed output is dir.
func NewMirrorStoreAt(dir string) *MirrorStore {
	dir = filepath.Clean(dir)
	return NewMirrorStore(filepath.Dir(dir), filepath.Base(dir))
}

func (s *MirrorStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *MirrorStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes page as a markdown file under the temporary directory.
func (s *MirrorStore) Save(ctx context.Context, page *sitecrawl.Page) error {
	relPath, err := URLToPath(page.URL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.tempDir(), relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	return os.WriteFile(fullPath, []byte(FormatPage(page, s.Now())), 0644)
}

// Commit replaces the output directory with the saved pages.
func (s *MirrorStore) Commit() error {
	// A run that saved nothing still produces an empty mirror.
	if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
		return err
	}

	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}

	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards the saved pages.
func (s *MirrorStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}

// URLToPath converts a page URL to a relative file path.
// Example: https://example.com/docs/api/users → docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", sitecrawl.Errorf(sitecrawl.EINVALID, "invalid page URL %q: %v", rawURL, err)
	}

	path := u.Path

	// Handle root or trailing slash → index.md
	if path == "" || path == "/" {
		return "index.md", nil
	}

	path = strings.TrimPrefix(path, "/")

	if strings.HasSuffix(path, "/") {
		path += "index.md"
	} else {
		path += ".md"
	}

	if !filepath.IsLocal(path) {
		return "", sitecrawl.Errorf(sitecrawl.EINVALID, "page URL %q escapes the mirror directory", rawURL)
	}
	return path, nil
}

// FormatPage formats a page with YAML frontmatter.
func FormatPage(page *sitecrawl.Page, crawled time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(page.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(page.Title)
	b.WriteString("\ncrawled: ")
	b.WriteString(crawled.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(page.Content)
	return b.String()
}

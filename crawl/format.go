package crawl

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/sitecrawl"
)

// ComputeHash returns the hex xxhash of content, used as a record's
// ContentHash.
func ComputeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ResultBytes returns the total size of the record texts.
func ResultBytes(records []*sitecrawl.PageRecord) int {
	n := 0
	for _, r := range records {
		n += len(r.Text)
	}
	return n
}

package sitecrawl

import (
	"context"
	"time"
)

// Frontier is the crawl queue: a FIFO of pending URLs plus the set of
// URLs already dequeued for fetching. A URL that has been visited is never
// queued again. URL fragments are ignored for identity.
type Frontier interface {
	// Push appends url to the back of the queue.
	// Returns false if the URL has been visited or is already pending.
	Push(url string) bool

	// PushFront places url at the front of the queue, moving it there if
	// it is already pending. Returns false if the URL has been visited.
	PushFront(url string) bool

	// Pop removes the next URL from the front of the queue and marks it
	// visited in the same step. Returns false if the queue is empty.
	Pop() (string, bool)

	// Len returns the number of pending URLs.
	Len() int

	// Visited returns true if the URL has been dequeued.
	Visited(url string) bool

	// Pending returns true if the URL is waiting in the queue.
	Pending(url string) bool

	// VisitedCount returns the number of URLs dequeued so far.
	VisitedCount() int
}

// Limiter enforces the politeness delay between consecutive requests.
type Limiter interface {
	// Wait blocks until the next request may be issued.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context) error
}

// RobotsPolicy exposes a site's robots.txt rules.
type RobotsPolicy interface {
	// CrawlDelay returns the Crawl-delay stated for the crawler's user agent
	// on the site hosting siteURL, or zero if none is stated.
	CrawlDelay(ctx context.Context, siteURL string) time.Duration

	// Allowed reports whether the crawler may fetch rawURL.
	Allowed(ctx context.Context, rawURL string) bool
}

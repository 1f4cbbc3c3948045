package crawl

import (
	"container/list"
	"strings"
	"sync"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/bloom"
)

// Compile-time interface verification.
var _ sitecrawl.Frontier = (*Frontier)(nil)

// Frontier is an in-memory FIFO URL frontier with visited and pending sets.
// A Bloom filter short-circuits membership checks for URLs never seen; the
// exact sets decide every positive. It is safe for concurrent use.
type Frontier struct {
	mu      sync.Mutex
	seen    *bloom.Filter
	queue   *list.List
	pending map[string]*list.Element
	visited map[string]struct{}
}

// NewFrontier creates a new Frontier sized for n expected URLs
// with the given false positive rate for the pre-filter.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		seen:    bloom.NewFilter(n, fpRate),
		queue:   list.New(),
		pending: make(map[string]*list.Element),
		visited: make(map[string]struct{}),
	}
}

// Push appends url to the back of the queue.
// Returns false if the URL has been visited or is already pending.
// URLs differing only by fragment are considered the same URL.
func (f *Frontier) Push(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	url = stripFragment(url)
	if f.seen.TestAndAdd(url) && f.known(url) {
		return false
	}
	f.pending[url] = f.queue.PushBack(url)
	return true
}

// PushFront places url at the front of the queue, moving it there if it is
// already pending. Returns false if the URL has been visited.
func (f *Frontier) PushFront(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	url = stripFragment(url)
	if _, ok := f.visited[url]; ok {
		return false
	}
	if e, ok := f.pending[url]; ok {
		f.queue.MoveToFront(e)
		return true
	}
	f.seen.Add(url)
	f.pending[url] = f.queue.PushFront(url)
	return true
}

// Pop removes the oldest pending URL and marks it visited.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := f.queue.Front()
	if e == nil {
		return "", false
	}
	url, _ := f.queue.Remove(e).(string)
	delete(f.pending, url)
	f.visited[url] = struct{}{}
	return url, true
}

// Len returns the number of pending URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// Visited returns true if the URL has been popped.
func (f *Frontier) Visited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	url = stripFragment(url)
	if !f.seen.MaybeContains(url) {
		return false
	}
	_, ok := f.visited[url]
	return ok
}

// Pending returns true if the URL is waiting in the queue.
func (f *Frontier) Pending(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	url = stripFragment(url)
	if !f.seen.MaybeContains(url) {
		return false
	}
	_, ok := f.pending[url]
	return ok
}

// VisitedCount returns the number of URLs popped so far.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// known reports whether url is pending or visited. Callers hold f.mu.
func (f *Frontier) known(url string) bool {
	if _, ok := f.pending[url]; ok {
		return true
	}
	_, ok := f.visited[url]
	return ok
}

func stripFragment(url string) string {
	if before, _, ok := strings.Cut(url, "#"); ok {
		return before
	}
	return url
}

// Package bloom provides a probabilistic membership pre-filter for crawl URLs.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter answers "definitely not seen" for URLs. A positive answer may be
// a false positive and must be confirmed against an exact set.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs with the given
// false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	if n == 0 {
		n = 1
	}
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records url in the filter.
func (f *Filter) Add(url string) {
	f.f.AddString(url)
}

// MaybeContains returns true if url might have been added.
// A false result is certain.
func (f *Filter) MaybeContains(url string) bool {
	return f.f.TestString(url)
}

// TestAndAdd reports whether url might have been added before, then adds it.
func (f *Filter) TestAndAdd(url string) bool {
	return f.f.TestAndAddString(url)
}

package sitecrawl

import (
	"context"
	"errors"
	"fmt"
)

// Response is the raw result of a successful fetch.
type Response struct {
	// URL is the requested URL.
	URL string

	StatusCode  int
	ContentType string

	// Body is the response body decoded to UTF-8.
	Body []byte
}

// Fetcher retrieves raw page bodies over HTTP.
type Fetcher interface {
	// Fetch issues a GET for url and returns the response body.
	// Failures are returned as *FetchError.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Response, error)
}

// FetchErrorKind classifies a failed fetch.
type FetchErrorKind int

// Fetch failure classes.
const (
	FetchOther FetchErrorKind = iota
	FetchTimeout
	FetchHTTPError
	FetchNetworkError
)

// String returns the name of the failure class.
func (k FetchErrorKind) String() string {
	switch k {
	case FetchTimeout:
		return "timeout"
	case FetchHTTPError:
		return "http_error"
	case FetchNetworkError:
		return "network_error"
	default:
		return "other"
	}
}

// FetchError is returned by Fetcher implementations when a URL cannot be
// retrieved. A failed URL is never retried within the same crawl run.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int // set for FetchHTTPError
	Err    error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == FetchHTTPError {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// FetchErrorKindOf returns the failure class of err.
// Errors that are not *FetchError are classified as FetchOther.
func FetchErrorKindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return FetchOther
}

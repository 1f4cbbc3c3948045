// Package http provides an HTTP implementation of sitecrawl.Fetcher for
// static sites that don't require JavaScript rendering.
package http

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/fwojciec/sitecrawl"
	"golang.org/x/net/html/charset"
)

// Fetch defaults.
const (
	DefaultFetchTimeout = sitecrawl.DefaultPageTimeout
	DefaultMaxBodySize  = 10 << 20
)

// Ensure Fetcher implements sitecrawl.Fetcher at compile time.
var _ sitecrawl.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves pages with plain GET requests. It sends browser-like
// headers, decodes gzip, deflate and brotli bodies itself, and converts
// HTML bodies to UTF-8. It never retries.
type Fetcher struct {
	client         *http.Client
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	maxBodySize    int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-request timeout.
// Defaults to DefaultFetchTimeout (15s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithAcceptLanguage sets the Accept-Language header.
func WithAcceptLanguage(lang string) Option {
	return func(f *Fetcher) {
		f.acceptLanguage = lang
	}
}

// WithMaxBodySize limits the decoded body size. Larger bodies fail the fetch.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:        DefaultFetchTimeout,
		userAgent:      sitecrawl.DefaultUserAgent,
		acceptLanguage: sitecrawl.DefaultAcceptLanguage,
		maxBodySize:    DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Accept-Encoding is set explicitly, so decoding is done here.
	transport.DisableCompression = true

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: transport,
	}

	return f
}

// Fetch retrieves the body of rawURL. Failures are *sitecrawl.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*sitecrawl.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &sitecrawl.FetchError{Kind: sitecrawl.FetchOther, URL: rawURL, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &sitecrawl.FetchError{Kind: sitecrawl.FetchOther, URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &sitecrawl.FetchError{Kind: sitecrawl.FetchOther, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &sitecrawl.FetchError{Kind: sitecrawl.FetchHTTPError, URL: rawURL, Status: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, &sitecrawl.FetchError{Kind: sitecrawl.FetchOther, URL: rawURL, Err: err}
	}

	data, err := io.ReadAll(io.LimitReader(body, f.maxBodySize+1))
	if err != nil {
		return nil, classify(rawURL, err)
	}
	if int64(len(data)) > f.maxBodySize {
		return nil, &sitecrawl.FetchError{Kind: sitecrawl.FetchOther, URL: rawURL, Err: fmt.Errorf("body exceeds %d bytes", f.maxBodySize)}
	}

	// An empty page is a valid page; there is nothing to transcode.
	if len(data) > 0 && isHTML(contentType) {
		if data, err = toUTF8(data, contentType); err != nil {
			return nil, &sitecrawl.FetchError{Kind: sitecrawl.FetchOther, URL: rawURL, Err: err}
		}
	}

	return &sitecrawl.Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        data,
	}, nil
}

// decodeBody undoes the Content-Encoding of a response body.
func decodeBody(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return r, nil
	case "gzip", "x-gzip":
		return gzip.NewReader(r)
	case "br":
		return brotli.NewReader(r), nil
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		br := bufio.NewReader(r)
		header, err := br.Peek(2)
		if err == nil && isZlibHeader(header) {
			return zlib.NewReader(br)
		}
		return flate.NewReader(br), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// toUTF8 converts an HTML body to UTF-8 using the declared or sniffed charset.
func toUTF8(data []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func isZlibHeader(b []byte) bool {
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.Contains(ct, "text/html") || strings.Contains(ct, "xhtml")
}

// classify maps a transport error to a fetch failure class.
func classify(rawURL string, err error) *sitecrawl.FetchError {
	kind := sitecrawl.FetchNetworkError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = sitecrawl.FetchTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = sitecrawl.FetchTimeout
	case errors.Is(err, context.Canceled):
		kind = sitecrawl.FetchOther
	}
	return &sitecrawl.FetchError{Kind: kind, URL: rawURL, Err: err}
}

package sitecrawl_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := sitecrawl.Errorf(sitecrawl.ENOTFOUND, "run %q not found", "test")

	assert.Equal(t, sitecrawl.ENOTFOUND, sitecrawl.ErrorCode(err))
	assert.Equal(t, "run \"test\" not found", sitecrawl.ErrorMessage(err))
}

func TestErrorCode_WrappedError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("crawl: %w", sitecrawl.Errorf(sitecrawl.EINVALID, "bad base URL"))

	assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	assert.Equal(t, "bad base URL", sitecrawl.ErrorMessage(err))
}

func TestErrorCode_NonApplicationError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, sitecrawl.EINTERNAL, sitecrawl.ErrorCode(err))
	assert.Equal(t, "Internal error.", sitecrawl.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, sitecrawl.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, sitecrawl.ErrorMessage(nil))
}

func TestFetchError(t *testing.T) {
	t.Parallel()

	t.Run("http error includes status", func(t *testing.T) {
		t.Parallel()

		err := &sitecrawl.FetchError{Kind: sitecrawl.FetchHTTPError, URL: "https://example.com/a", Status: 503}

		assert.Equal(t, "fetch https://example.com/a: HTTP 503", err.Error())
		assert.Equal(t, sitecrawl.FetchHTTPError, sitecrawl.FetchErrorKindOf(err))
	})

	t.Run("unwraps cause", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		err := fmt.Errorf("page: %w", &sitecrawl.FetchError{Kind: sitecrawl.FetchNetworkError, URL: "https://example.com/", Err: cause})

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, sitecrawl.FetchNetworkError, sitecrawl.FetchErrorKindOf(err))
		assert.Contains(t, err.Error(), "network_error")
	})

	t.Run("other errors classify as FetchOther", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, sitecrawl.FetchOther, sitecrawl.FetchErrorKindOf(errors.New("x")))
		assert.Equal(t, "timeout", sitecrawl.FetchTimeout.String())
	})
}

func TestSitemapParseError(t *testing.T) {
	t.Parallel()

	cause := errors.New("EOF")
	err := &sitecrawl.SitemapParseError{URL: "https://example.com/sitemap.xml", Err: cause}

	assert.Equal(t, "parse sitemap https://example.com/sitemap.xml: EOF", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "parse sitemap: EOF", (&sitecrawl.SitemapParseError{Err: cause}).Error())
}

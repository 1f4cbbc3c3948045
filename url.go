package sitecrawl

import (
	"net/url"
	"strings"
)

// NormalizeURL resolves ref against base and returns the absolute URL with
// any fragment removed and an empty path written as "/". URLs that differ
// only by fragment normalize to the same string.
//
// Returns EINVALID if either reference cannot be parsed, if ref is empty,
// or if the result is not an http(s) URL with a host. Callers are expected
// to drop such references rather than abort.
func NormalizeURL(ref, base string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", Errorf(EINVALID, "empty URL reference")
	}

	r, err := url.Parse(ref)
	if err != nil {
		return "", Errorf(EINVALID, "malformed URL %q: %v", ref, err)
	}

	resolved := r
	if base != "" {
		b, err := url.Parse(strings.TrimSpace(base))
		if err != nil {
			return "", Errorf(EINVALID, "malformed base URL %q: %v", base, err)
		}
		resolved = b.ResolveReference(r)
	}

	if !isHTTPScheme(resolved.Scheme) {
		return "", Errorf(EINVALID, "unsupported URL scheme %q", resolved.Scheme)
	}
	if resolved.Host == "" {
		return "", Errorf(EINVALID, "URL %q has no host", ref)
	}

	resolved.Fragment = ""
	resolved.RawFragment = ""
	if resolved.Path == "" && resolved.Opaque == "" {
		resolved.Path = "/"
	}
	return resolved.String(), nil
}

// Scope restricts a crawl to a single network authority.
type Scope struct {
	authority string
}

// NewScope returns a Scope for the authority of baseURL.
// Returns EINVALID if baseURL is not an absolute http(s) URL.
func NewScope(baseURL string) (*Scope, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, Errorf(EINVALID, "invalid base URL %q: %v", baseURL, err)
	}
	if !isHTTPScheme(u.Scheme) || u.Host == "" {
		return nil, Errorf(EINVALID, "base URL %q must be an absolute http(s) URL", baseURL)
	}
	return &Scope{authority: authority(u)}, nil
}

// Authority returns the host (and non-default port) the scope is bound to.
func (s *Scope) Authority() string {
	return s.authority
}

// Contains reports whether rawURL is an http(s) URL on the scope's authority.
// Unparsable URLs are never in scope.
func (s *Scope) Contains(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !isHTTPScheme(u.Scheme) {
		return false
	}
	return authority(u) == s.authority
}

// authority returns the lowercased host with the port elided when it is
// the default port for the scheme.
func authority(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	switch {
	case port == "":
	case port == "80" && strings.EqualFold(u.Scheme, "http"):
	case port == "443" && strings.EqualFold(u.Scheme, "https"):
	default:
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		return host + ":" + port
	}
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

func isHTTPScheme(scheme string) bool {
	return strings.EqualFold(scheme, "http") || strings.EqualFold(scheme, "https")
}

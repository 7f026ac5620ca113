package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// specialSchemes must carry a host to count as a parsable URL.
var specialSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ws":    true,
	"wss":   true,
	"ftp":   true,
}

// parseAbsoluteURL parses raw as an absolute URL.
//
// net/url happily accepts relative references such as "not a url", so a
// scheme is required on top of a successful parse, and web schemes must have
// a host. Failures wrap ErrMalformedBaseURL.
func parseAbsoluteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedBaseURL, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrMalformedBaseURL, raw)
	}
	if specialSchemes[u.Scheme] && u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrMalformedBaseURL, raw)
	}
	return u, nil
}

// Normalize resolves href, found on the page at baseURL, into an absolute URL.
//
// The rules are applied in order:
//  1. href starting with "http" is returned unchanged. This also accepts
//     strings such as "httpfoo"; the looseness is kept on purpose.
//  2. A protocol-relative href ("//host/path") gets an "https:" prefix.
//  3. An absolute path ("/path") is joined to baseURL's scheme and
//     lowercased host, port included.
//  4. Anything else is appended to baseURL after trimming its trailing
//     slashes. This is not RFC 3986 resolution: "b" on "https://ex.com/a"
//     yields "https://ex.com/a/b".
//
// Rules 3 and 4 fail with ErrMalformedBaseURL when baseURL does not parse.
// No other validation is done; an invalid result surfaces later as a fetch
// failure.
func Normalize(baseURL, href string) (string, error) {
	switch {
	case strings.HasPrefix(href, "http"):
		return href, nil
	case strings.HasPrefix(href, "//"):
		return "https:" + href, nil
	case strings.HasPrefix(href, "/"):
		base, err := parseAbsoluteURL(baseURL)
		if err != nil {
			return "", err
		}
		// Host keeps any port, unlike Scope.Domain.
		return base.Scheme + "://" + strings.ToLower(base.Host) + href, nil
	default:
		if _, err := parseAbsoluteURL(baseURL); err != nil {
			return "", err
		}
		return strings.TrimRight(baseURL, "/") + "/" + href, nil
	}
}

package crawler

import (
	"strings"
)

// rootAnchor is the anchor of a seed without a meaningful path.
const rootAnchor = "/"

// Scope restricts which discovered links a crawl follows.
// It is derived once from the seed URL and never modified afterwards.
type Scope struct {
	// Domain is the lowercased host of the seed URL, without port.
	Domain string

	// BasePathAnchor is "/" or "/" + the last non-empty path segment of the
	// seed URL.
	BasePathAnchor string
}

// NewScope derives the Scope of a crawl from its seed URL.
func NewScope(seedURL string) (Scope, error) {
	domain, err := DeriveDomain(seedURL)
	if err != nil {
		return Scope{}, err
	}
	anchor, err := DeriveBasePathAnchor(seedURL)
	if err != nil {
		return Scope{}, err
	}
	return Scope{Domain: domain, BasePathAnchor: anchor}, nil
}

// DeriveDomain returns the lowercased host of seedURL, or an empty string if
// it has none.
func DeriveDomain(seedURL string) (string, error) {
	u, err := parseAbsoluteURL(seedURL)
	if err != nil {
		return "", err
	}
	return strings.ToLower(u.Hostname()), nil
}

// DeriveBasePathAnchor returns "/" for an empty or root seed path and
// "/" + the last non-empty segment otherwise.
//
//	https://ex.com            -> /
//	https://ex.com/blog/      -> /blog
//	https://ex.com/blog/post1 -> /post1
func DeriveBasePathAnchor(seedURL string) (string, error) {
	u, err := parseAbsoluteURL(seedURL)
	if err != nil {
		return "", err
	}

	path := u.EscapedPath()
	if path == "" || path == rootAnchor {
		return rootAnchor, nil
	}

	path = strings.TrimSuffix(path, "/")
	var last string
	for _, segment := range strings.Split(path, "/") {
		if segment != "" {
			last = segment
		}
	}
	if last == "" {
		return rootAnchor, nil
	}
	return "/" + last, nil
}

// InScope reports whether candidateURL, discovered on currentURL, may be
// followed.
//
// Known limitation: both checks are plain substring tests. A URL that merely
// mentions the domain in its path or query passes the domain check, and an
// anchor of "/" matches every URL, so root seeds have no path scoping.
func (s Scope) InScope(candidateURL, currentURL string) bool {
	if candidateURL == currentURL {
		return false
	}
	return strings.Contains(candidateURL, s.Domain) &&
		strings.Contains(candidateURL, s.BasePathAnchor)
}

package crawler

import (
	"errors"
	"fmt"
	"net/http"
)

// Crawl errors.
// Every error returned by this package wraps exactly one of these, so callers
// can tell the kinds apart with errors.Is.
var (
	// ErrMalformedBaseURL is returned when a URL could not be parsed where
	// normalization or scope derivation needed it.
	ErrMalformedBaseURL = errors.New("malformed base url")

	// ErrFetchFailure is returned for transport errors, timeouts and
	// non-success HTTP responses.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrExtractionFailure is returned when a page body could not be scanned
	// for links.
	ErrExtractionFailure = errors.New("extraction failure")
)

// errAlreadyVisited is returned by the traversal when another branch has
// already claimed a URL. It never leaves the package.
var errAlreadyVisited = errors.New("url already visited")

// StatusError describes a response with a non-2xx status code.
// It is always wrapped together with ErrFetchFailure.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status code received.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s for %s",
		e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

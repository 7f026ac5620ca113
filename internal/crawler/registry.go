package crawler

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// VisitedRegistry is the set of URLs claimed during one crawl.
// It is the only state shared between crawl branches; a URL, once claimed,
// is never released.
type VisitedRegistry struct {
	// urls is a thread-safe set. Its Add performs the membership check and
	// the insert under one lock.
	urls mapset.Set[string]
}

// NewVisitedRegistry returns an empty registry.
func NewVisitedRegistry() *VisitedRegistry {
	return &VisitedRegistry{urls: mapset.NewSet[string]()}
}

// TryClaim atomically inserts url and reports whether this call inserted it.
// Concurrent claims of the same URL see exactly one true.
func (r *VisitedRegistry) TryClaim(url string) bool {
	return r.urls.Add(url)
}

// Contains reports whether url has been claimed.
// The answer may be stale as soon as it is returned; use TryClaim to decide
// whether to fetch.
func (r *VisitedRegistry) Contains(url string) bool {
	return r.urls.Contains(url)
}

// Len returns the number of claimed URLs.
func (r *VisitedRegistry) Len() int {
	return r.urls.Cardinality()
}

// URLs returns the claimed URLs in sorted order.
func (r *VisitedRegistry) URLs() []string {
	urls := r.urls.ToSlice()
	sort.Strings(urls)
	return urls
}

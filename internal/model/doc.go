// Package model defines the data structures shared by the crawler, the
// report writers and the history database.
//
// This package contains the following main types:
//   - LinkNode: One fetched page and the pages first discovered from it
//   - CrawlReport: A finished crawl of one seed URL with its scope and timing
//   - Edge: A flattened parent/child pair, used for CSV export
package model

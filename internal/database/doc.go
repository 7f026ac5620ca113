// Package database keeps the history of finished crawls in SQLite
// (modernc.org/sqlite, no cgo).
//
// Each row of crawl_reports holds one CrawlReport as JSON plus the columns
// needed to list and compare runs without decoding it: seed, start time,
// page count, depth and the tree fingerprint.
package database

package model

import (
	"context"
	"errors"
	"time"
)

// CrawlReport is the result of crawling one seed URL.
// It wraps the link tree with the scope that bounded it and timing data.
// The crawler core only produces the LinkNode; the orchestrator fills in
// the rest.
type CrawlReport struct {
	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// Domain is the host derived from the seed; links must contain it.
	Domain string `json:"domain"`

	// BasePathAnchor is "/" or "/" + the last non-empty seed path segment.
	BasePathAnchor string `json:"base_path_anchor"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock time the crawl took.
	Duration time.Duration `json:"duration"`

	// PageCount is the number of nodes in Root.
	PageCount int `json:"page_count"`

	// MaxDepth is the depth of the deepest node in Root.
	MaxDepth int `json:"max_depth"`

	// Fingerprint is Root.Fingerprint(), kept for cheap change detection.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Root is the crawl tree. Nil when the crawl failed.
	Root *LinkNode `json:"root,omitempty"`

	// Error is the terminal error of a failed crawl.
	Error error `json:"-"`

	// ErrorMessage is Error rendered as a string for serialization.
	ErrorMessage string `json:"error,omitempty"`

	// TimedOut is true when the crawl was cut short by its context.
	TimedOut bool `json:"timed_out,omitempty"`
}

// NewCrawlReport starts a report for the given seed.
func NewCrawlReport(seed string) *CrawlReport {
	return &CrawlReport{
		Seed:      seed,
		StartedAt: time.Now(),
	}
}

// Complete records the outcome of the crawl.
// A failed crawl keeps no tree, even if one was passed in.
func (r *CrawlReport) Complete(root *LinkNode, err error) {
	r.Duration = time.Since(r.StartedAt)
	if err != nil {
		r.Fail(err)
		return
	}
	r.Root = root
	r.PageCount = root.Count()
	r.MaxDepth = root.Depth()
	r.Fingerprint = root.Fingerprint()
}

// Fail marks the report as failed with err.
func (r *CrawlReport) Fail(err error) {
	if r.Duration == 0 {
		r.Duration = time.Since(r.StartedAt)
	}
	r.Root = nil
	r.PageCount = 0
	r.MaxDepth = 0
	r.Fingerprint = ""
	r.Error = err
	r.ErrorMessage = err.Error()
	r.TimedOut = errors.Is(err, context.DeadlineExceeded)
}

// Succeeded reports whether the crawl produced a tree.
func (r *CrawlReport) Succeeded() bool {
	return r.Root != nil && r.ErrorMessage == ""
}

// Package crawler builds a link tree of a website from a single seed URL.
//
// # Components
//
//   - Normalize turns an href found on a page into an absolute URL.
//   - Scope restricts a crawl to the seed's domain and path anchor.
//   - VisitedRegistry records claimed URLs; its claim is atomic.
//   - Spider is the recursive, depth-bounded traversal.
//   - HTTPFetcher and HTMLExtractor are the default network and HTML
//     collaborators of the Spider.
//   - Orchestrator is the entry point: seed in, tree or error out.
//
// # Error policy
//
// Only the root of a crawl can fail it. A reference that does not normalize
// is skipped, and a child page that cannot be fetched or scanned is left out
// of its parent's children. No fetch is ever retried.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(client)
//	spider := crawler.NewSpider(fetcher, crawler.NewHTMLExtractor())
//	root, err := crawler.NewOrchestrator(spider).RunCrawl(ctx, "https://example.com/blog")
package crawler

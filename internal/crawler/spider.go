package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/nao1215/graphix/internal/model"
)

// DefaultMaxDepth is the depth ceiling of a crawl. The seed is depth 0, so
// a tree holds at most four levels of pages.
const DefaultMaxDepth = 3

// Spider is the traversal engine. It fetches a page, extracts its links,
// and recurses into every new in-scope link until the depth ceiling.
//
// A Spider holds no per-crawl state: the Scope and VisitedRegistry are
// passed in by the caller, so one Spider can serve any number of crawls,
// including concurrent ones.
type Spider struct {
	// fetcher downloads page bodies.
	fetcher Fetcher

	// extractor pulls raw hrefs out of a body.
	extractor LinkExtractor

	// maxDepth is the depth ceiling. Pages at maxDepth are fetched but
	// their links are not followed.
	maxDepth int

	// concurrency is the number of fetches allowed in flight at once.
	// 1 crawls children one after another in document order.
	concurrency int

	// sem bounds in-flight fetches when concurrency > 1.
	sem *semaphore.Weighted

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the depth ceiling. Negative values are ignored.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

// WithConcurrency sets how many fetches may run at once.
// Values below 1 are treated as 1.
func WithConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		if n < 1 {
			n = 1
		}
		s.concurrency = n
	}
}

// WithLogger sets the logger used for debug output about pruned branches.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a Spider that fetches with fetcher and reads links
// with extractor.
func NewSpider(fetcher Fetcher, extractor LinkExtractor, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:     fetcher,
		extractor:   extractor,
		maxDepth:    DefaultMaxDepth,
		concurrency: 1,
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.concurrency > 1 {
		s.sem = semaphore.NewWeighted(int64(s.concurrency))
	}

	return s
}

// MaxDepth returns the depth ceiling.
func (s *Spider) MaxDepth() int {
	return s.maxDepth
}

// CrawlRoot crawls seedURL at depth 0 and returns the whole tree.
//
// Unlike the recursive calls below it, a failure here is returned: a root
// that cannot be fetched or scanned yields no tree at all. A crawl whose
// context ends before it finishes also returns an error, since branches cut
// off by the cancellation would otherwise look like dead links.
func (s *Spider) CrawlRoot(ctx context.Context, seedURL string, scope Scope, visited *VisitedRegistry) (*model.LinkNode, error) {
	root, err := s.crawl(ctx, seedURL, 0, scope, visited)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl of %s interrupted: %w", seedURL, err)
	}
	return root, nil
}

// crawl builds the subtree rooted at pageURL.
func (s *Spider) crawl(ctx context.Context, pageURL string, depth int, scope Scope, visited *VisitedRegistry) (*model.LinkNode, error) {
	if depth > s.maxDepth {
		return model.NewLinkNode(pageURL), nil
	}

	if !visited.TryClaim(pageURL) {
		return nil, errAlreadyVisited
	}

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	hrefs, err := s.extractor.ExtractHrefs(body)
	if err != nil {
		if !errors.Is(err, ErrExtractionFailure) {
			err = fmt.Errorf("%w: %w", ErrExtractionFailure, err)
		}
		return nil, err
	}

	candidates := s.candidates(pageURL, hrefs, depth, scope, visited)

	node := model.NewLinkNode(pageURL)
	if s.concurrency > 1 && len(candidates) > 1 {
		node.Children = s.crawlChildrenParallel(ctx, candidates, depth+1, scope, visited)
	} else {
		for _, candidate := range candidates {
			if child := s.crawlChild(ctx, candidate, depth+1, scope, visited); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}
	return node, nil
}

// candidates turns the raw hrefs of pageURL into the ordered list of URLs
// to recurse into.
func (s *Spider) candidates(pageURL string, hrefs []string, depth int, scope Scope, visited *VisitedRegistry) []string {
	candidates := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		candidate, err := Normalize(pageURL, href)
		if err != nil {
			s.logger.Debug("skipping reference", "page", pageURL, "href", href, "error", err)
			continue
		}
		if !scope.InScope(candidate, pageURL) {
			continue
		}
		if depth >= s.maxDepth {
			s.logger.Debug("depth exhausted", "page", pageURL, "candidate", candidate, "depth", depth)
			continue
		}
		if visited.Contains(candidate) {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

// crawlChild crawls one candidate. Any failure prunes the branch and
// returns nil.
func (s *Spider) crawlChild(ctx context.Context, candidate string, depth int, scope Scope, visited *VisitedRegistry) *model.LinkNode {
	child, err := s.crawl(ctx, candidate, depth, scope, visited)
	if err != nil {
		if !errors.Is(err, errAlreadyVisited) {
			s.logger.Debug("pruning branch", "url", candidate, "depth", depth, "error", err)
		}
		return nil
	}
	return child
}

// crawlChildrenParallel crawls candidates concurrently and returns the
// surviving children in candidate order.
func (s *Spider) crawlChildrenParallel(ctx context.Context, candidates []string, depth int, scope Scope, visited *VisitedRegistry) []*model.LinkNode {
	results := make([]*model.LinkNode, len(candidates))

	// crawlChild never fails, so the group is used only for Wait.
	var g errgroup.Group
	for i, candidate := range candidates {
		g.Go(func() error {
			results[i] = s.crawlChild(ctx, candidate, depth, scope, visited)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // goroutines always return nil

	children := make([]*model.LinkNode, 0, len(results))
	for _, child := range results {
		if child != nil {
			children = append(children, child)
		}
	}
	return children
}

// fetch calls the fetcher, holding a semaphore slot in parallel mode.
// The slot is released before children are crawled, so a parent never
// blocks its own descendants.
func (s *Spider) fetch(ctx context.Context, pageURL string) (string, error) {
	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("%w: %w", ErrFetchFailure, err)
		}
		defer s.sem.Release(1)
	}

	body, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		if !errors.Is(err, ErrFetchFailure) {
			err = fmt.Errorf("%w: %w", ErrFetchFailure, err)
		}
		return "", err
	}
	return body, nil
}

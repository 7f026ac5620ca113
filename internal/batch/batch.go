package batch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/graphix/internal/model"
)

// DefaultConcurrency is the number of seeds crawled at once.
const DefaultConcurrency = 4

// Runner crawls one seed and always returns a report, failed or not.
type Runner interface {
	Run(ctx context.Context, seed string) *model.CrawlReport
}

// RunnerFactory builds the Runner for one seed. Seeds can need different
// transports (cookies, headers, timeouts), so each gets its own.
type RunnerFactory func(seed string) (Runner, error)

// Processor crawls several seeds concurrently. Each seed is an independent
// crawl with its own visited set; the only shared limit is concurrency.
type Processor struct {
	factory     RunnerFactory
	concurrency int
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithConcurrency sets how many seeds are crawled at once.
// Non-positive values keep the default.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithLogger sets the logger for batch-level events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// NewProcessor creates a Processor that builds runners with factory.
func NewProcessor(factory RunnerFactory, opts ...Option) *Processor {
	p := &Processor{
		factory:     factory,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// Process crawls every seed and returns the reports in seed order.
// A failed seed yields a failed report; it does not stop the others.
// The error is non-nil only when ctx ended before every seed was started,
// in which case the unstarted seeds have failed reports carrying ctx's error.
func (p *Processor) Process(ctx context.Context, seeds []string) ([]*model.CrawlReport, error) {
	reports := make([]*model.CrawlReport, len(seeds))
	err := p.ProcessWithCallback(ctx, seeds, func(report *model.CrawlReport, index int) {
		// each index is written by exactly one goroutine
		reports[index] = report
	})
	return reports, err
}

// ProcessWithCallback crawls every seed and calls fn as each crawl finishes.
// fn is called from the crawling goroutine and must be safe for concurrent use.
func (p *Processor) ProcessWithCallback(
	ctx context.Context,
	seeds []string,
	fn func(report *model.CrawlReport, index int),
) error {
	p.logger.Info("starting batch",
		"seeds", len(seeds),
		"concurrency", p.concurrency,
	)
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report := model.NewCrawlReport(seed)
				report.Fail(err)
				fn(report, i)
				return err
			}

			report := p.runOne(gctx, seed, i, len(seeds))
			fn(report, i)
			return nil
		})
	}

	err := g.Wait()

	p.logger.Info("batch complete",
		"seeds", len(seeds),
		"elapsed", time.Since(started),
	)

	return err
}

func (p *Processor) runOne(ctx context.Context, seed string, index, total int) *model.CrawlReport {
	p.logger.Info("crawling seed",
		"seed", seed,
		"index", index+1,
		"total", total,
	)

	runner, err := p.factory(seed)
	if err != nil {
		report := model.NewCrawlReport(seed)
		report.Fail(err)
		p.logger.Warn("crawl setup failed", "seed", seed, "error", err)
		return report
	}

	report := runner.Run(ctx, seed)
	if !report.Succeeded() {
		p.logger.Warn("crawl failed", "seed", seed, "error", report.ErrorMessage)
	}
	return report
}

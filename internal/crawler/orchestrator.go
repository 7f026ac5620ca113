package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/graphix/internal/model"
)

// Presenter receives the report of every successful crawl.
type Presenter interface {
	Present(report *model.CrawlReport) error
}

// Notifier is told when a crawl has completed successfully.
type Notifier interface {
	Notify(report *model.CrawlReport)
}

// Orchestrator is the entry point of a crawl. It derives the scope from the
// seed, gives the crawl a fresh VisitedRegistry, and runs the Spider.
type Orchestrator struct {
	spider    *Spider
	presenter Presenter
	notifier  Notifier
	logger    *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithPresenter sets the presenter that receives successful reports.
func WithPresenter(p Presenter) OrchestratorOption {
	return func(o *Orchestrator) {
		o.presenter = p
	}
}

// WithNotifier sets the completion notifier.
func WithNotifier(n Notifier) OrchestratorOption {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an Orchestrator around spider.
func NewOrchestrator(spider *Spider, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		spider: spider,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// RunCrawl crawls from seedURL and returns the tree.
// A seed that does not parse fails with ErrMalformedBaseURL before any
// fetch; a root that cannot be fetched fails with ErrFetchFailure.
// RunCrawl has no side effects besides the fetches themselves.
func (o *Orchestrator) RunCrawl(ctx context.Context, seedURL string) (*model.LinkNode, error) {
	scope, err := NewScope(seedURL)
	if err != nil {
		return nil, err
	}
	return o.spider.CrawlRoot(ctx, seedURL, scope, NewVisitedRegistry())
}

// Run crawls from seedURL and returns a report. Failures are recorded in
// the report rather than returned. The presenter and notifier are only
// called for successful crawls.
func (o *Orchestrator) Run(ctx context.Context, seedURL string) *model.CrawlReport {
	report := model.NewCrawlReport(seedURL)

	if scope, err := NewScope(seedURL); err == nil {
		report.Domain = scope.Domain
		report.BasePathAnchor = scope.BasePathAnchor
	}

	o.logger.Info("crawl started", "seed", seedURL, "max_depth", o.spider.MaxDepth())

	root, err := o.RunCrawl(ctx, seedURL)
	report.Complete(root, err)
	if err != nil {
		o.logger.Warn("crawl failed", "seed", seedURL, "error", err)
		return report
	}

	o.logger.Info("crawl completed",
		"seed", seedURL,
		"pages", report.PageCount,
		"duration", report.Duration)

	if o.presenter != nil {
		if err := o.presenter.Present(report); err != nil {
			o.logger.Warn("failed to present report", "seed", seedURL, "error", err)
		}
	}
	if o.notifier != nil {
		o.notifier.Notify(report)
	}
	return report
}

// LogNotifier announces completed crawls through a logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a Notifier that logs at Info level.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(report *model.CrawlReport) {
	n.logger.Info("crawl finished",
		"seed", report.Seed,
		"pages", report.PageCount,
		"max_depth", report.MaxDepth)
}

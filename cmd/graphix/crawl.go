package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/graphix/internal/batch"
	"github.com/nao1215/graphix/internal/config"
	"github.com/nao1215/graphix/internal/crawler"
	"github.com/nao1215/graphix/internal/database"
	graphixlog "github.com/nao1215/graphix/internal/log"
	"github.com/nao1215/graphix/internal/model"
	"github.com/nao1215/graphix/internal/report"
	"github.com/nao1215/graphix/internal/transport"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url> [seed-url...]",
		Short: "Crawl a website and print its link tree",
		Long: `Crawl fetches the seed URL, follows the links it finds and prints the
resulting tree of pages.

Only links on the seed's host whose path contains the seed's last path
segment are followed. Each page appears at most once in the tree, at the
place where it was first discovered. A page that cannot be fetched or
parsed is left out together with everything below it.

Examples:
  # Crawl a documentation section three levels deep
  graphix crawl https://example.com/docs

  # Crawl one level deep and print JSON
  graphix crawl --depth 1 --json https://example.com/blog

  # Crawl two sites concurrently and save the results
  graphix crawl --save https://example.com/docs https://example.org/wiki

  # Crawl through a SOCKS5 proxy with 8 parallel fetches
  graphix crawl --proxy 127.0.0.1:9050 --concurrency 8 https://example.com/

Configuration file (.graphix) example:
  defaults:
    timeout: 30s
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page fetch")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum recursion depth (the seed is depth 0)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Parallel fetches within one crawl (1 crawls in document order)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled concurrently")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Transport
	cmd.Flags().StringP("proxy", "p", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Start an embedded Tor daemon and route requests through it")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .graphix in current or home directory)")

	// Output
	cmd.Flags().BoolP("json", "j", false, "Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report")
	cmd.Flags().Bool("csv", false, "Output CSV (one row per page)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History
	cmd.Flags().BoolP("save", "s", false,
		"Save each finished crawl to the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := graphixlog.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UseEmbeddedTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.CSVReport, err = flags.GetBool("csv"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	// An explicit --config must exist; the implicit lookup may find nothing.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.Seeds = args

	return cfg, nil
}

// runCrawl crawls every seed and writes the reports to stdout (or the
// report file). It fails when any seed failed.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"max_depth", cfg.MaxDepth,
		"concurrency", cfg.Concurrency,
		"batch", cfg.BatchSize,
	)

	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	proxyAddr, stopProxy, err := setupProxy(ctx, cfg, logger, stderr)
	if err != nil {
		return err
	}
	defer stopProxy()

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	presenter := &lockedPresenter{
		presenter: report.NewPresenter(newReportWriter(cfg, output, len(cfg.Seeds) > 1)),
	}

	factory := func(seed string) (batch.Runner, error) {
		return newOrchestrator(cfg, seed, proxyAddr, presenter, logger)
	}

	processor := batch.NewProcessor(factory,
		batch.WithConcurrency(cfg.BatchSize),
		batch.WithLogger(logger),
	)

	var (
		mu     sync.Mutex
		failed int
	)
	batchErr := processor.ProcessWithCallback(ctx, cfg.Seeds, func(r *model.CrawlReport, _ int) {
		mu.Lock()
		defer mu.Unlock()

		if !r.Succeeded() {
			failed++
			fmt.Fprintf(stderr, "crawl of %s failed: %s\n", r.Seed, r.ErrorMessage)
		}

		// detached from ctx so an interrupted crawl is still recorded
		if err := saveCrawlReport(context.WithoutCancel(ctx), db, r, logger); err != nil {
			logger.Error("failed to save crawl report", "seed", r.Seed, "error", err)
		}
	})

	if batchErr != nil {
		return fmt.Errorf("crawl interrupted: %w", batchErr)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d crawls failed", failed, len(cfg.Seeds))
	}
	return nil
}

// setupProxy resolves the SOCKS5 address requests go through, starting an
// embedded Tor daemon if asked to. The returned func releases it.
func setupProxy(ctx context.Context, cfg *config.Config, logger *slog.Logger, stderr io.Writer) (string, func(), error) {
	noop := func() {}

	switch {
	case cfg.ProxyAddress != "":
		if status := transport.CheckProxy(ctx, cfg.ProxyAddress); status != transport.ProxyStatusOK {
			return "", noop, fmt.Errorf("proxy check failed for %s: %w", cfg.ProxyAddress, status.Error())
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		return cfg.ProxyAddress, noop, nil

	case cfg.UseEmbeddedTor:
		fmt.Fprintln(stderr, "Starting embedded Tor daemon (this may take a few minutes)...")

		embedded := transport.NewEmbeddedTor(transport.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := embedded.Start(ctx); err != nil {
			return "", noop, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		logger.Info("embedded Tor daemon started", "socks_addr", embedded.SocksAddr())

		stop := func() {
			if err := embedded.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		return embedded.SocksAddr(), stop, nil

	default:
		return "", noop, nil
	}
}

// newOrchestrator wires the crawl stack for one seed. The site file is
// consulted with the seed's host, which is also the only host the crawl
// can reach.
func newOrchestrator(
	cfg *config.Config,
	seed, proxyAddr string,
	presenter crawler.Presenter,
	logger *slog.Logger,
) (*crawler.Orchestrator, error) {
	site := cfg.SiteConfigs.GetSiteConfigForURL(seed)

	timeout := cfg.Timeout
	if site.Timeout > 0 {
		timeout = site.Timeout
	}
	userAgent := cfg.UserAgent
	if site.UserAgent != "" {
		userAgent = site.UserAgent
	}

	clientOpts := []transport.ClientOption{
		transport.WithTimeout(timeout),
		transport.WithCookie(site.Cookie),
		transport.WithHeaders(site.Headers),
	}
	if proxyAddr != "" {
		clientOpts = append(clientOpts, transport.WithSOCKS5Proxy(proxyAddr))
	}

	client, err := transport.NewHTTPClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	fetcher := crawler.NewHTTPFetcher(client,
		crawler.WithFetchTimeout(timeout),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithUserAgent(userAgent),
	)

	spider := crawler.NewSpider(fetcher, crawler.NewHTMLExtractor(),
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithLogger(logger),
	)

	return crawler.NewOrchestrator(spider,
		crawler.WithPresenter(presenter),
		crawler.WithNotifier(crawler.NewLogNotifier(logger)),
		crawler.WithOrchestratorLogger(logger),
	), nil
}

// newReportWriter picks the output format. Several seeds share one stream,
// so JSON is written one compact object per line in that case.
func newReportWriter(cfg *config.Config, output io.Writer, multiple bool) report.Writer {
	switch {
	case cfg.JSONReport:
		if multiple {
			return report.NewJSONWriter(output)
		}
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	case cfg.CSVReport:
		return report.NewCSVWriter(output)
	default:
		return report.NewSimpleWriter(output, report.WithFingerprint(cfg.Verbose))
	}
}

// openOutput returns the report destination: the file at path, or stdout
// when path is empty.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	if err := ensureParentDir(path); err != nil {
		return nil, nil, err
	}

	// Reports may contain session-protected URLs
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// lockedPresenter serializes reports from concurrent crawls onto one stream.
type lockedPresenter struct {
	mu        sync.Mutex
	presenter crawler.Presenter
}

func (p *lockedPresenter) Present(r *model.CrawlReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.presenter.Present(r)
}

// saveCrawlReport stores the report if a database is open.
func saveCrawlReport(ctx context.Context, db *database.CrawlDB, r *model.CrawlReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveCrawlReport(ctx, r)
	if err != nil {
		return err
	}

	logger.Info("crawl report saved", "seed", r.Seed, "id", id)
	return nil
}

package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/graphix/internal/batch"
	"github.com/nao1215/graphix/internal/crawler"
	"github.com/nao1215/graphix/internal/transport"
)

// Default configuration values. Crawl and transport defaults are owned by
// the packages that apply them.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "graphix"

	// DefaultTimeout bounds one page fetch.
	DefaultTimeout = crawler.DefaultFetchTimeout

	// DefaultMaxDepth is the depth ceiling; the seed is depth 0.
	DefaultMaxDepth = crawler.DefaultMaxDepth

	// DefaultConcurrency of 1 crawls children one after another, which gives
	// the same tree on every run against an unchanged site.
	DefaultConcurrency = 1

	// DefaultBatchSize is the number of seeds crawled at the same time.
	DefaultBatchSize = batch.DefaultConcurrency

	// DefaultUserAgent identifies graphix in HTTP requests.
	DefaultUserAgent = crawler.DefaultUserAgent

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = crawler.DefaultMaxBodySize

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = transport.DefaultTorStartupTimeout
)

// Config holds the options of one graphix crawl invocation.
// It is filled from CLI flags and passed down explicitly.
type Config struct {
	// Seeds are the URLs to crawl from, one tree per seed.
	Seeds []string

	// Timeout bounds a single page fetch.
	Timeout time.Duration

	// MaxDepth is the depth ceiling of the crawl.
	MaxDepth int

	// Concurrency is the number of fetches in flight within one crawl.
	Concurrency int

	// BatchSize is the number of seeds crawled concurrently.
	BatchSize int

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// 0 uses DefaultMaxBodySize.
	MaxBodySize int64

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseEmbeddedTor starts a private Tor daemon and routes requests
	// through it. Mutually exclusive with ProxyAddress.
	UseEmbeddedTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// ConfigFilePath is the path to the site configuration file.
	// If empty, .graphix is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds the loaded site configuration file, if any.
	SiteConfigs *File

	// JSONReport selects JSON output.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// CSVReport selects CSV output (one row per tree node).
	CSVReport bool

	// ReportFile is the output file path. Empty means stdout.
	ReportFile string

	// SaveToDB stores every finished report in the history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/graphix on Linux).
	DBDir string

	// Verbose enables debug logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		MaxDepth:          DefaultMaxDepth,
		Concurrency:       DefaultConcurrency,
		BatchSize:         DefaultBatchSize,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for graphix.
// On Linux: ~/.local/share/graphix
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for graphix.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	formats := 0
	for _, enabled := range []bool{c.JSONReport, c.MarkdownReport, c.CSVReport} {
		if enabled {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.UseEmbeddedTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}

	return nil
}

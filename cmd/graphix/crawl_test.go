package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/graphix/internal/config"
	"github.com/nao1215/graphix/internal/database"
	"github.com/nao1215/graphix/internal/model"
)

// newSite serves a small documentation tree:
//
//	/docs -> /docs/a, /docs/b, /blog (out of anchor)
//	/docs/a -> /docs/a/deep, /docs (already visited)
//	/docs/b -> 500
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/docs":        `<a href="/docs/a">a</a><a href="/docs/b">b</a><a href="/blog">blog</a>`,
		"/docs/a":      `<a href="/docs/a/deep">deep</a><a href="/docs">up</a>`,
		"/docs/a/deep": `<p>bottom</p>`,
		"/blog":        `<a href="/docs">docs</a>`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/docs/b" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body>"+body+"</body></html>")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testConfig(seeds ...string) *config.Config {
	cfg := config.NewConfig()
	cfg.Seeds = seeds
	cfg.Timeout = 5 * time.Second
	cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	return cfg
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"timeout", "t", "30s"},
		{"depth", "d", "3"},
		{"concurrency", "n", "1"},
		{"batch", "b", "4"},
		{"proxy", "p", ""},
		{"tor", "", "false"},
		{"json", "j", "false"},
		{"markdown", "m", "false"},
		{"csv", "", "false"},
		{"output", "o", ""},
		{"save", "s", "false"},
		{"config", "c", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("shorthand = %q, want %q", flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("default = %q, want %q", flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("reads flags and site file", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "site.yaml")
		content := "sites:\n  example.com:\n    cookie: \"session=abc\"\n"
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{
			"--depth", "1", "--concurrency", "4", "--timeout", "10s",
			"--csv", "--save", "--db-dir", "/tmp/graphix-db", "-c", configPath,
		}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, []string{"https://example.com/docs"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.MaxDepth != 1 || cfg.Concurrency != 4 || cfg.Timeout != 10*time.Second {
			t.Errorf("got depth=%d concurrency=%d timeout=%v", cfg.MaxDepth, cfg.Concurrency, cfg.Timeout)
		}
		if !cfg.CSVReport || !cfg.SaveToDB || cfg.DBDir != "/tmp/graphix-db" {
			t.Errorf("got csv=%v save=%v dbdir=%q", cfg.CSVReport, cfg.SaveToDB, cfg.DBDir)
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://example.com/docs" {
			t.Errorf("Seeds = %v", cfg.Seeds)
		}
		if got := cfg.SiteConfigs.GetSiteConfig("example.com").Cookie; got != "session=abc" {
			t.Errorf("site cookie = %q", got)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		missing := filepath.Join(t.TempDir(), "nope.yaml")
		if err := cmd.ParseFlags([]string{"-c", missing}); err != nil {
			t.Fatal(err)
		}

		_, err := buildConfig(cmd, []string{"https://example.com/"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("err = %v, want ErrConfigNotFound", err)
		}
	})
}

func TestRunCrawlCmdValidation(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, []byte("sites: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no seed", []string{"crawl", "-c", configPath}, config.ErrNoSeed},
		{"two formats", []string{"crawl", "-c", configPath, "--json", "--csv", "https://example.com/"}, config.ErrConflictingReportFormats},
		{"negative depth", []string{"crawl", "-c", configPath, "--depth=-1", "https://example.com/"}, config.ErrInvalidDepth},
		{"proxy and tor", []string{"crawl", "-c", configPath, "--tor", "-p", "127.0.0.1:9050", "https://example.com/"}, config.ErrConflictingProxy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			if err := cmd.Execute(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	t.Run("json report and saved history", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		seed := srv.URL + "/docs"

		cfg := testConfig(seed)
		cfg.JSONReport = true
		cfg.SaveToDB = true
		cfg.DBDir = t.TempDir()

		var stdout, stderr bytes.Buffer
		if err := runCrawl(context.Background(), cfg, quietLogger(), &stdout, &stderr); err != nil {
			t.Fatalf("unexpected error: %v (stderr: %s)", err, stderr.String())
		}

		var got model.CrawlReport
		if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout.String())
		}

		want := []string{seed, srv.URL + "/docs/a", srv.URL + "/docs/a/deep"}
		urls := got.Root.URLs()
		if strings.Join(urls, " ") != strings.Join(want, " ") {
			t.Errorf("URLs = %v, want %v", urls, want)
		}
		if got.BasePathAnchor != "/docs" || got.Domain != "127.0.0.1" {
			t.Errorf("scope = %q %q", got.Domain, got.BasePathAnchor)
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		history, err := db.GetCrawlHistory(context.Background(), seed)
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 1 || history[0].PageCount != 3 {
			t.Errorf("history = %+v", history)
		}
	})

	t.Run("depth zero yields the seed only", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		cfg := testConfig(srv.URL + "/docs")
		cfg.MaxDepth = 0
		cfg.CSVReport = true

		var stdout bytes.Buffer
		if err := runCrawl(context.Background(), cfg, quietLogger(), &stdout, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		if len(lines) != 2 {
			t.Errorf("expected header and one row, got:\n%s", stdout.String())
		}
	})

	t.Run("failed seed is reported", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		cfg := testConfig(srv.URL+"/docs", srv.URL+"/missing")
		cfg.CSVReport = true
		cfg.BatchSize = 2

		var stdout, stderr bytes.Buffer
		err := runCrawl(context.Background(), cfg, quietLogger(), &stdout, &stderr)
		if err == nil || !strings.Contains(err.Error(), "1 of 2 crawls failed") {
			t.Fatalf("err = %v", err)
		}
		if !strings.Contains(stderr.String(), srv.URL+"/missing") {
			t.Errorf("stderr should name the failed seed: %q", stderr.String())
		}
		if n := strings.Count(stdout.String(), "seed,depth,parent,url"); n != 1 {
			t.Errorf("CSV header written %d times", n)
		}
	})

	t.Run("site cookie is sent", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			_, _ = io.WriteString(w, "<html><body>ok</body></html>")
		}))
		defer srv.Close()

		cfg := testConfig(srv.URL + "/")
		cfg.SiteConfigs.Sites["127.0.0.1"] = config.SiteConfig{Cookie: "session=abc"}

		var stdout bytes.Buffer
		if err := runCrawl(context.Background(), cfg, quietLogger(), &stdout, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout.String(), "GRAPHIX CRAWL REPORT") {
			t.Errorf("expected simple report, got:\n%s", stdout.String())
		}
	})

	t.Run("report file", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		cfg := testConfig(srv.URL + "/docs")
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "out", "report.md")

		var stdout bytes.Buffer
		if err := runCrawl(context.Background(), cfg, quietLogger(), &stdout, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stdout.Len() != 0 {
			t.Error("nothing should be written to stdout")
		}

		content, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "# Crawl Report") {
			t.Errorf("unexpected report:\n%s", content)
		}
	})

	t.Run("unreachable proxy", func(t *testing.T) {
		t.Parallel()

		ln := httptest.NewServer(http.NotFoundHandler())
		addr := strings.TrimPrefix(ln.URL, "http://")
		ln.Close()

		cfg := testConfig("https://example.com/")
		cfg.ProxyAddress = addr

		err := runCrawl(context.Background(), cfg, quietLogger(), io.Discard, io.Discard)
		if err == nil || !strings.Contains(err.Error(), "proxy check failed") {
			t.Errorf("err = %v", err)
		}
	})
}

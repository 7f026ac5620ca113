package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/graphix/internal/model"
)

// sampleReport returns a finished report for
//
//	https://ex.com/blog
//	├── https://ex.com/blog/a
//	│   └── https://ex.com/blog/a/c
//	└── https://ex.com/blog/b
func sampleReport() *model.CrawlReport {
	root := &model.LinkNode{
		URL: "https://ex.com/blog",
		Children: []*model.LinkNode{
			{
				URL:      "https://ex.com/blog/a",
				Children: []*model.LinkNode{model.NewLinkNode("https://ex.com/blog/a/c")},
			},
			model.NewLinkNode("https://ex.com/blog/b"),
		},
	}

	report := model.NewCrawlReport("https://ex.com/blog")
	report.StartedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	report.Domain = "ex.com"
	report.BasePathAnchor = "/blog"
	report.Complete(root, nil)
	report.Duration = 1500 * time.Millisecond
	return report
}

func failedReport() *model.CrawlReport {
	report := model.NewCrawlReport("https://ex.com/missing")
	report.Complete(nil, errors.New("fetch failure: unexpected status 404"))
	return report
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("draws the tree", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf, WithFingerprint(true)).Write(sampleReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("n = %d, buffer has %d bytes", n, buf.Len())
		}

		want := strings.Join([]string{
			"https://ex.com/blog",
			"├── https://ex.com/blog/a",
			"│   └── https://ex.com/blog/a/c",
			"└── https://ex.com/blog/b",
		}, "\n")
		output := buf.String()
		if !strings.Contains(output, want) {
			t.Errorf("tree not found in output:\n%s", output)
		}
		for _, s := range []string{"Status:      Complete", "Pages:     4", "Max Depth: 2", "Depth 1:   2", "Fingerprint:"} {
			if !strings.Contains(output, s) {
				t.Errorf("expected %q in output:\n%s", s, output)
			}
		}
	})

	t.Run("failed crawl has no tree", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(failedReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "Failed - Fetch Failure: unexpected status 404") {
			t.Errorf("expected failure status:\n%s", output)
		}
		if strings.Contains(output, "LINK TREE") {
			t.Errorf("failed report should not draw a tree:\n%s", output)
		}
	})
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	timedOut := model.NewCrawlReport("https://ex.com/slow")
	timedOut.TimedOut = true

	withMessage := func(msg string) *model.CrawlReport {
		report := model.NewCrawlReport("https://ex.com")
		report.Complete(nil, errors.New(msg))
		return report
	}

	tests := []struct {
		name   string
		report *model.CrawlReport
		want   string
	}{
		{name: "complete", report: sampleReport(), want: "Complete"},
		{name: "timed out", report: timedOut, want: "Timed Out"},
		{name: "error kind is title-cased", report: withMessage("malformed base url: missing host"), want: "Failed - Malformed Base Url: missing host"},
		{name: "only the kind is title-cased", report: withMessage("fetch failure: unexpected status 404"), want: "Failed - Fetch Failure: unexpected status 404"},
		{name: "url prefix is left alone", report: withMessage("https://ex.com/x: connection refused"), want: "Failed - https://ex.com/x: connection refused"},
		{name: "no kind separator", report: withMessage("context canceled"), want: "Failed - context canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := statusText(tt.report); got != tt.want {
				t.Errorf("statusText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded model.CrawlReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !decoded.Root.Equal(sampleReport().Root) {
		t.Error("decoded tree differs from the written one")
	}
	if !strings.Contains(buf.String(), "\n  \"seed\"") {
		t.Errorf("expected indented output:\n%s", buf.String())
	}

	t.Run("compact output is one line per report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)
		for _, r := range []*model.CrawlReport{sampleReport(), failedReport()} {
			if _, err := w.Write(r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want 2", len(lines))
		}
		if !strings.Contains(lines[1], `"error":"fetch failure`) {
			t.Errorf("failed report should carry its error: %s", lines[1])
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("successful crawl", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(sampleReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, s := range []string{
			"# Crawl Report",
			"## Pages per Depth",
			"```mermaid",
			"pie",
			"## Link Tree",
			"- [https://ex.com/blog](https://ex.com/blog)",
			"    - [https://ex.com/blog/a/c](https://ex.com/blog/a/c)",
		} {
			if !strings.Contains(output, s) {
				t.Errorf("expected %q in output:\n%s", s, output)
			}
		}
	})

	t.Run("failed crawl", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(failedReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Errorf("expected caution alert:\n%s", output)
		}
		if strings.Contains(output, "## Link Tree") {
			t.Errorf("failed report should not list a tree:\n%s", output)
		}
	})
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	for _, r := range []*model.CrawlReport{sampleReport(), failedReport(), sampleReport()} {
		if _, err := w.Write(r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "seed,depth,parent,url" {
		t.Errorf("header = %q", lines[0])
	}
	// one header plus two reports of four nodes each
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want 9:\n%s", len(lines), buf.String())
	}
	if lines[1] != "https://ex.com/blog,0,,https://ex.com/blog" {
		t.Errorf("root row = %q", lines[1])
	}
	if lines[3] != "https://ex.com/blog,2,https://ex.com/blog/a,https://ex.com/blog/a/c" {
		t.Errorf("third row = %q", lines[3])
	}
}

func TestMultiWriterAndPresenter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	p := NewPresenter(NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js)))
	if err := p.Present(sampleReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("every writer should receive the report")
	}
}

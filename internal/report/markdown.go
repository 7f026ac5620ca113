package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/graphix/internal/model"
)

// MarkdownWriter outputs reports as GitHub Flavored Markdown: a summary
// table, pages per depth as a table and a mermaid pie chart, and the link
// tree as a nested list.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	if report.Root == nil {
		md.Cautionf("The crawl of %s failed: %s", report.Seed, report.ErrorMessage)
		md.PlainText("")
	} else {
		w.writeDepths(md, report)
		w.writeTree(md, report.Root)
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Seed", "`" + report.Seed + "`"},
	}
	if report.Domain != "" {
		rows = append(rows,
			[]string{"Domain", "`" + report.Domain + "`"},
			[]string{"Path Anchor", "`" + report.BasePathAnchor + "`"},
		)
	}
	rows = append(rows,
		[]string{"Started", report.StartedAt.Format(timestampLayout)},
		[]string{"Duration", report.Duration.Round(1e6).String()},
		[]string{"Pages", strconv.Itoa(report.PageCount)},
		[]string{"Max Depth", strconv.Itoa(report.MaxDepth)},
		[]string{"Status", statusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeDepths(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Pages per Depth")
	md.PlainText("")

	counts := report.Root.CountByDepth()
	rows := make([][]string, 0, len(counts))
	for depth, count := range counts {
		rows = append(rows, []string{strconv.Itoa(depth), strconv.Itoa(count)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")

	// a single slice says nothing
	if len(counts) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Pages per Depth"),
			piechart.WithShowData(true),
		)
		for depth, count := range counts {
			chart.LabelAndIntValue(fmt.Sprintf("Depth %d", depth), uint64(count)) //nolint:gosec // counts are non-negative
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	if report.Root.IsLeaf() {
		md.Note("The seed page has no in-scope links.")
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeTree(md *markdown.Markdown, root *model.LinkNode) {
	md.H2("Link Tree")
	md.PlainText("")

	var sb strings.Builder
	root.Walk(func(node, _ *model.LinkNode, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString("- ")
		sb.WriteString(markdown.Link(node.URL, node.URL))
		sb.WriteString("\n")
		return true
	})
	md.PlainText(strings.TrimSuffix(sb.String(), "\n"))
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [graphix](https://github.com/nao1215/graphix)*")
}

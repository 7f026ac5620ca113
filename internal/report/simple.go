package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/graphix/internal/model"
)

// Tree drawing glyphs.
const (
	branchMid  = "├── "
	branchLast = "└── "
	indentBar  = "│   "
	indentNone = "    "
)

// SimpleWriter renders a report as text for the terminal: a header, the
// link tree drawn with box characters, and a summary.
type SimpleWriter struct {
	baseWriter

	// showFingerprint adds the tree fingerprint to the summary.
	showFingerprint bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithFingerprint shows the tree fingerprint in the summary.
func WithFingerprint(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showFingerprint = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the report.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	if report.Root != nil {
		w.writeTree(&sb, report.Root)
		w.writeSummary(&sb, report)
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        GRAPHIX CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:        %s\n", report.Seed)
	if report.Domain != "" {
		fmt.Fprintf(sb, "Domain:      %s\n", report.Domain)
		fmt.Fprintf(sb, "Path Anchor: %s\n", report.BasePathAnchor)
	}
	fmt.Fprintf(sb, "Started:     %s\n", report.StartedAt.Format(timestampLayout))
	fmt.Fprintf(sb, "Duration:    %s\n", report.Duration.Round(1e6))
	fmt.Fprintf(sb, "Status:      %s\n", statusText(report))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTree(sb *strings.Builder, root *model.LinkNode) {
	sectionHeader(sb, "LINK TREE")
	sb.WriteString(root.URL)
	sb.WriteString("\n")
	writeChildren(sb, root, "")
	sb.WriteString("\n")
}

// writeChildren draws the children of n below a line prefixed by prefix.
func writeChildren(sb *strings.Builder, n *model.LinkNode, prefix string) {
	for i, child := range n.Children {
		last := i == len(n.Children)-1
		branch, indent := branchMid, indentBar
		if last {
			branch, indent = branchLast, indentNone
		}
		sb.WriteString(prefix)
		sb.WriteString(branch)
		sb.WriteString(child.URL)
		sb.WriteString("\n")
		writeChildren(sb, child, prefix+indent)
	}
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.CrawlReport) {
	sectionHeader(sb, "SUMMARY")
	fmt.Fprintf(sb, "  Pages:     %d\n", report.PageCount)
	fmt.Fprintf(sb, "  Max Depth: %d\n", report.MaxDepth)
	for depth, count := range report.Root.CountByDepth() {
		fmt.Fprintf(sb, "  Depth %d:   %d\n", depth, count)
	}
	if w.showFingerprint {
		fmt.Fprintf(sb, "  Fingerprint: %s\n", report.Fingerprint)
	}
	sb.WriteString("\n")
}

func sectionHeader(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

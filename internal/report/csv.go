package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/nao1215/graphix/internal/model"
)

// csvRow is one node of a crawl tree as written to CSV.
type csvRow struct {
	Seed   string `csv:"seed"`
	Depth  int    `csv:"depth"`
	Parent string `csv:"parent"`
	URL    string `csv:"url"`
}

// CSVWriter outputs one row per tree node (seed, depth, parent, url).
// The header is written once, so several reports can share one file.
type CSVWriter struct {
	baseWriter

	wroteHeader bool
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the rows of the report's tree. Failed crawls have no rows.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	if report.Root == nil {
		return 0, nil
	}

	edges := report.Root.Flatten()
	rows := make([]csvRow, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, csvRow{
			Seed:   report.Seed,
			Depth:  e.Depth,
			Parent: e.Parent,
			URL:    e.URL,
		})
	}

	var buf bytes.Buffer
	if w.wroteHeader {
		if err := gocsv.MarshalWithoutHeaders(rows, &buf); err != nil {
			return 0, fmt.Errorf("failed to encode csv: %w", err)
		}
	} else {
		if err := gocsv.Marshal(rows, &buf); err != nil {
			return 0, fmt.Errorf("failed to encode csv: %w", err)
		}
	}

	n, err := w.output.Write(buf.Bytes())
	if err == nil {
		w.wroteHeader = true
	}
	return n, err
}

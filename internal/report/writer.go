package report

import (
	"io"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/graphix/internal/model"
)

// Writer writes crawl reports in one output format.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *model.CrawlReport) (int, error)
}

// MultiWriter writes each report to several Writers, e.g. terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes to every Writer in order and stops at the first error.
func (m *MultiWriter) Write(report *model.CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Presenter adapts a Writer to the crawler's presentation hook.
type Presenter struct {
	writer Writer
}

// NewPresenter returns a Presenter writing through w.
func NewPresenter(w Writer) *Presenter {
	return &Presenter{writer: w}
}

// Present writes the report.
func (p *Presenter) Present(report *model.CrawlReport) error {
	_, err := p.writer.Write(report)
	return err
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes the outcome of a crawl.
func statusText(report *model.CrawlReport) string {
	switch {
	case report.TimedOut:
		return "Timed Out"
	case report.ErrorMessage != "":
		return "Failed - " + titleErrorKind(report.ErrorMessage)
	default:
		return "Complete"
	}
}

// titleErrorKind title-cases the leading error kind of msg, the text before
// the first ": ", when it is made of letters and spaces only.
//
//	fetch failure: unexpected status 404 -> Fetch Failure: unexpected status 404
func titleErrorKind(msg string) string {
	kind, rest, found := strings.Cut(msg, ": ")
	if !found || kind == "" {
		return msg
	}
	for _, r := range kind {
		if r != ' ' && !unicode.IsLetter(r) {
			return msg
		}
	}
	return cases.Title(language.English).String(kind) + ": " + rest
}

// timestampLayout formats report timestamps.
const timestampLayout = "2006-01-02 15:04:05 MST"

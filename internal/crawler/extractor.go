package crawler

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LinkExtractor returns the raw href values found in a page body.
// Order follows the document; duplicates and garbage are kept, and the
// traversal copes with both.
type LinkExtractor interface {
	ExtractHrefs(body string) ([]string, error)
}

// HTMLExtractor extracts anchor hrefs with golang.org/x/net/html.
// Malformed markup is repaired the way browsers repair it, so the parser
// itself practically never fails.
type HTMLExtractor struct{}

// NewHTMLExtractor creates an HTMLExtractor.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{}
}

// ExtractHrefs returns the href of every <a> element in document order.
// Values are returned verbatim, including empty ones; anchors without an
// href attribute are skipped.
func (e *HTMLExtractor) ExtractHrefs(body string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailure, err)
	}

	hrefs := make([]string, 0)
	for n := range doc.Descendants() {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			continue
		}
		if href, ok := getAttr(n, "href"); ok {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs, nil
}

// getAttr retrieves the first value of an attribute from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Namespace == "" && attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

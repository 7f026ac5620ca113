// Package report renders crawl reports.
//
// Four formats are available: a text tree for the terminal (SimpleWriter),
// JSON (JSONWriter), Markdown with a mermaid chart (MarkdownWriter), and
// CSV with one row per page (CSVWriter). All of them implement Writer.
package report

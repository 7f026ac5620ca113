package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/graphix/internal/config"
	"github.com/nao1215/graphix/internal/database"
	"github.com/nao1215/graphix/internal/model"
	"github.com/nao1215/graphix/internal/report"
)

// historyTimeLayout is the timestamp layout of history listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// fingerprintPrefix is the number of fingerprint characters shown in tables.
const fingerprintPrefix = 12

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-url]",
		Short: "Show saved crawl results",
		Long: `History reads crawl reports saved with 'graphix crawl --save'.

Without flags it lists every saved crawl of the seed. A changed fingerprint
means the link tree changed between two runs.

Examples:
  # List every seed with saved crawls
  graphix history --list-seeds

  # List saved crawls of a seed
  graphix history https://example.com/docs

  # Show a saved crawl by ID
  graphix history --id 4

  # Show which pages appeared or disappeared between the last two crawls
  graphix history --diff https://example.com/docs`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-seeds", "L", false,
		"List all seeds in the database")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the saved crawl with this ID")
	cmd.Flags().BoolP("diff", "d", false,
		"Compare the URL sets of the latest two successful crawls")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// historyOptions are the parsed flags of the history command.
type historyOptions struct {
	seed      string
	listSeeds bool
	id        int64
	diff      bool
	json      bool
	markdown  bool
	dbDir     string
}

func parseHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{}
	if len(args) > 0 {
		opts.seed = args[0]
	}

	flags := cmd.Flags()
	var err error
	if opts.listSeeds, err = flags.GetBool("list-seeds"); err != nil {
		return nil, err
	}
	if opts.id, err = flags.GetInt64("id"); err != nil {
		return nil, err
	}
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	// Validate before opening the database
	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if !opts.listSeeds && opts.id == 0 && opts.seed == "" {
		return nil, errors.New("seed URL is required (use --list-seeds to see saved seeds)")
	}
	if opts.id < 0 {
		return nil, fmt.Errorf("invalid crawl ID: %d", opts.id)
	}

	return opts, nil
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case opts.listSeeds:
		return listSeeds(ctx, db, out)
	case opts.id > 0:
		return showCrawl(ctx, db, opts, out)
	case opts.diff:
		return diffLatest(ctx, db, opts, out)
	default:
		return listHistory(ctx, db, opts.seed, out)
	}
}

func listSeeds(ctx context.Context, db *database.CrawlDB, out io.Writer) error {
	seeds, err := db.ListSeeds(ctx)
	if err != nil {
		return err
	}

	if len(seeds) == 0 {
		fmt.Fprintln(out, "No saved crawls found.")
		fmt.Fprintln(out, "\nUse 'graphix crawl --save <url>' to save a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Seeds (%d):\n\n", len(seeds))
	for _, seed := range seeds {
		fmt.Fprintf(out, "  • %s\n", seed)
	}
	return nil
}

func listHistory(ctx context.Context, db *database.CrawlDB, seed string, out io.Writer) error {
	history, err := db.GetCrawlHistory(ctx, seed)
	if err != nil {
		return err
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No saved crawls for %s\n", seed)
		return nil
	}

	fmt.Fprintf(out, "Crawl history for %s (%d crawls):\n\n", seed, len(history))

	tbl := table.New("ID", "Started", "Pages", "Depth", "Fingerprint", "Status").WithWriter(out)
	for _, meta := range history {
		status := "ok"
		if !meta.Succeeded() {
			status = "failed: " + meta.Error
		}
		tbl.AddRow(
			meta.ID,
			meta.Timestamp.Local().Format(historyTimeLayout),
			meta.PageCount,
			meta.MaxDepth,
			shortFingerprint(meta.Fingerprint),
			status,
		)
	}
	tbl.Print()

	fmt.Fprintln(out, "\nUse 'graphix history --id <id>' to show a crawl.")
	return nil
}

func showCrawl(ctx context.Context, db *database.CrawlDB, opts *historyOptions, out io.Writer) error {
	r, err := db.GetCrawlReportByID(ctx, opts.id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("crawl with ID %d not found", opts.id)
	}
	if opts.seed != "" && r.Seed != opts.seed {
		return fmt.Errorf("crawl ID %d belongs to %s, not %s", opts.id, r.Seed, opts.seed)
	}

	var w report.Writer
	switch {
	case opts.json:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out, report.WithFingerprint(true))
	}
	_, err = w.Write(r)
	return err
}

// runSummary identifies one side of a diff.
type runSummary struct {
	ID          int64     `json:"id"`
	Started     time.Time `json:"started"`
	Pages       int       `json:"pages"`
	Fingerprint string    `json:"fingerprint"`
}

// diffResult is the URL-set difference between two crawls of one seed.
type diffResult struct {
	Seed      string     `json:"seed"`
	Previous  runSummary `json:"previous"`
	Current   runSummary `json:"current"`
	Added     []string   `json:"added"`
	Removed   []string   `json:"removed"`
	Unchanged int        `json:"unchanged"`
}

// Changed reports whether the trees differ; a moved page counts as a change.
func (d *diffResult) Changed() bool {
	return d.Previous.Fingerprint != d.Current.Fingerprint
}

func diffLatest(ctx context.Context, db *database.CrawlDB, opts *historyOptions, out io.Writer) error {
	history, err := db.GetCrawlHistory(ctx, opts.seed)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, 2)
	for _, meta := range history {
		if meta.Succeeded() {
			ids = append(ids, meta.ID)
		}
		if len(ids) == 2 {
			break
		}
	}
	if len(ids) < 2 {
		return fmt.Errorf("at least 2 successful crawls of %s are required (found %d)", opts.seed, len(ids))
	}

	current, err := db.GetCrawlReportByID(ctx, ids[0])
	if err != nil {
		return err
	}
	previous, err := db.GetCrawlReportByID(ctx, ids[1])
	if err != nil {
		return err
	}

	result := newDiffResult(ids[1], previous, ids[0], current)

	switch {
	case opts.json:
		return writeDiffJSON(out, result)
	case opts.markdown:
		return writeDiffMarkdown(out, result)
	default:
		return writeDiffText(out, result)
	}
}

func newDiffResult(prevID int64, previous *model.CrawlReport, curID int64, current *model.CrawlReport) *diffResult {
	added, removed := model.DiffURLs(previous.Root, current.Root)
	return &diffResult{
		Seed: current.Seed,
		Previous: runSummary{
			ID:          prevID,
			Started:     previous.StartedAt,
			Pages:       previous.PageCount,
			Fingerprint: previous.Fingerprint,
		},
		Current: runSummary{
			ID:          curID,
			Started:     current.StartedAt,
			Pages:       current.PageCount,
			Fingerprint: current.Fingerprint,
		},
		Added:     added,
		Removed:   removed,
		Unchanged: current.PageCount - len(added),
	}
}

func writeDiffJSON(out io.Writer, result *diffResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeDiffMarkdown(out io.Writer, result *diffResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Crawl Diff: " + result.Seed)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"", "Previous", "Current"},
		Rows: [][]string{
			{"ID", strconv.FormatInt(result.Previous.ID, 10), strconv.FormatInt(result.Current.ID, 10)},
			{"Started", result.Previous.Started.Format(historyTimeLayout), result.Current.Started.Format(historyTimeLayout)},
			{"Pages", strconv.Itoa(result.Previous.Pages), strconv.Itoa(result.Current.Pages)},
			{"Fingerprint", "`" + shortFingerprint(result.Previous.Fingerprint) + "`", "`" + shortFingerprint(result.Current.Fingerprint) + "`"},
		},
	})
	md.PlainText("")

	if !result.Changed() {
		md.Note("The link tree is unchanged.")
		return md.Build()
	}

	if len(result.Added) > 0 {
		md.H2(fmt.Sprintf("Added (%d)", len(result.Added)))
		md.PlainText("")
		md.BulletList(result.Added...)
		md.PlainText("")
	}
	if len(result.Removed) > 0 {
		md.H2(fmt.Sprintf("Removed (%d)", len(result.Removed)))
		md.PlainText("")
		md.BulletList(result.Removed...)
		md.PlainText("")
	}
	if len(result.Added) == 0 && len(result.Removed) == 0 {
		md.Note("The same pages were found, but the tree shape changed.")
	}

	return md.Build()
}

func writeDiffText(out io.Writer, result *diffResult) error {
	fmt.Fprintf(out, "Crawl Diff: %s\n", result.Seed)
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "\nPrevious: #%d  %s  %d pages\n",
		result.Previous.ID, result.Previous.Started.Format(historyTimeLayout), result.Previous.Pages)
	fmt.Fprintf(out, "Current:  #%d  %s  %d pages\n",
		result.Current.ID, result.Current.Started.Format(historyTimeLayout), result.Current.Pages)

	if !result.Changed() {
		fmt.Fprintln(out, "\nUnchanged")
		return nil
	}

	if len(result.Added) > 0 {
		fmt.Fprintf(out, "\nAdded (%d):\n", len(result.Added))
		for _, u := range result.Added {
			fmt.Fprintf(out, "  [+] %s\n", u)
		}
	}
	if len(result.Removed) > 0 {
		fmt.Fprintf(out, "\nRemoved (%d):\n", len(result.Removed))
		for _, u := range result.Removed {
			fmt.Fprintf(out, "  [-] %s\n", u)
		}
	}
	if len(result.Added) == 0 && len(result.Removed) == 0 {
		fmt.Fprintln(out, "\nSame pages, different tree shape")
	}
	fmt.Fprintf(out, "\nUnchanged pages: %d\n", result.Unchanged)

	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > fingerprintPrefix {
		return fp[:fingerprintPrefix]
	}
	return fp
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/inference"
	"github.com/nao1215/phishscan/internal/model"
)

// NewHistoryCmd creates the history command.
// This command shows checks and training runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show previous checks and training runs",
		Long: `History displays results stored in the local history database.

Without arguments it lists the most recent checks. With a URL it shows how
often that URL was checked and every stored verdict. A single stored report
can be shown again in any report format with --id.

Examples:
  # Latest 20 checks
  phishscan history

  # Every check of one URL
  phishscan history https://example.com/login

  # Show a stored report as Markdown
  phishscan history --id 2f0c... --markdown

  # List every checked URL
  phishscan history --urls

  # List training runs
  phishscan history --training`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Number of recent checks to list (0 lists all)")
	cmd.Flags().StringP("id", "i", "",
		"Show the stored report with this ID")
	cmd.Flags().BoolP("urls", "u", false,
		"List every checked URL")
	cmd.Flags().BoolP("training", "t", false,
		"List training runs")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"History database directory")

	// Output format flags for --id
	cmd.Flags().BoolP("json", "j", false,
		"Output the report selected by --id as JSON")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the report selected by --id as Markdown")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	id, err := flags.GetString("id")
	if err != nil {
		return err
	}
	listURLs, err := flags.GetBool("urls")
	if err != nil {
		return err
	}
	training, err := flags.GetBool("training")
	if err != nil {
		return err
	}

	// Only read existing history; never create an empty database here.
	if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(cmd.OutOrStdout(), "No history found.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'phishscan check <url>' to check a URL.")
		return nil
	}
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case id != "":
		return showReport(ctx, out, cfg, db, id)
	case training:
		return listTrainingRuns(ctx, out, db)
	case listURLs:
		return listCheckedURLs(ctx, out, db)
	case len(args) == 1:
		return showURLHistory(ctx, out, db, args[0])
	default:
		return listRecentChecks(ctx, out, db, limit)
	}
}

// showReport writes one stored report in the selected format.
func showReport(ctx context.Context, out io.Writer, cfg *config.Config, db *database.ResultDB, id string) error {
	r, err := db.ReportByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get report: %w", err)
	}
	if r == nil {
		return fmt.Errorf("%w: %s", errReportNotFound, id)
	}
	_, err = newReportWriter(cfg, out).Write(r)
	return err
}

// listRecentChecks lists the latest checks.
func listRecentChecks(ctx context.Context, out io.Writer, db *database.ResultDB, limit int) error {
	summaries, err := db.RecentReports(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No checks found in the database.")
		fmt.Fprintln(out, "\nUse 'phishscan check <url>' to check a URL.")
		return nil
	}

	fmt.Fprintf(out, "Recent checks (%d):\n\n", len(summaries))
	writeSummaryTable(out, summaries)
	fmt.Fprintln(out, "\nUse 'phishscan history --id <id>' to show a full report.")
	return nil
}

// showURLHistory lists every check of one URL.
func showURLHistory(ctx context.Context, out io.Writer, db *database.ResultDB, url string) error {
	stat, err := db.URLStats(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to get url statistics: %w", err)
	}
	if stat == nil {
		fmt.Fprintf(out, "No checks found for %s\n", url)
		return nil
	}

	reports, err := db.ReportsForURL(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	fmt.Fprintf(out, "History for %s\n\n", url)
	fmt.Fprintf(out, "  Checks:        %d\n", stat.CheckCount)
	fmt.Fprintf(out, "  First checked: %s\n", stat.FirstChecked.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Last checked:  %s\n", stat.LastChecked.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Last verdict:  %s\n\n", stat.LastVerdict)

	summaries := make([]database.ReportSummary, 0, len(reports))
	for _, r := range reports {
		summaries = append(summaries, summaryOf(r))
	}
	writeSummaryTable(out, summaries)

	if changed := verdictChanges(reports); changed > 0 {
		fmt.Fprintf(out, "\nThe verdict changed %d time(s).\n", changed)
	}
	return nil
}

// verdictChanges counts how often the verdict differs between consecutive
// successful checks.
func verdictChanges(reports []*model.CheckReport) int {
	changes := 0
	var last model.Verdict
	for _, r := range reports {
		if !r.OK() {
			continue
		}
		if last != "" && r.Verdict != last {
			changes++
		}
		last = r.Verdict
	}
	return changes
}

// summaryOf converts a full report into a table row.
func summaryOf(r *model.CheckReport) database.ReportSummary {
	return database.ReportSummary{
		ID:               r.ID,
		URL:              r.URL,
		CheckedAt:        r.CheckedAt,
		Status:           string(r.Status),
		Verdict:          r.Verdict,
		LegitProbability: r.LegitProbability,
		Risk:             r.Risk,
	}
}

// writeSummaryTable prints one line per check.
func writeSummaryTable(out io.Writer, summaries []database.ReportSummary) {
	fmt.Fprintf(out, "  %-36s  %-19s  %-10s  %-5s  %s\n", "ID", "Date", "Verdict", "Legit", "URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))
	for _, s := range summaries {
		verdict := string(s.Verdict)
		if s.Status != string(inference.StatusOK) {
			verdict = s.Status
		}
		legit := "n/a"
		if s.LegitProbability != nil {
			legit = fmt.Sprintf("%.2f", *s.LegitProbability)
		}
		fmt.Fprintf(out, "  %-36s  %-19s  %-10s  %-5s  %s\n",
			s.ID,
			s.CheckedAt.Local().Format("2006-01-02 15:04:05"),
			verdict,
			legit,
			s.URL,
		)
	}
}

// listCheckedURLs lists every URL with at least one check.
func listCheckedURLs(ctx context.Context, out io.Writer, db *database.ResultDB) error {
	urls, err := db.ListCheckedURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list urls: %w", err)
	}

	if len(urls) == 0 {
		fmt.Fprintln(out, "No checked URLs found in the database.")
		return nil
	}

	fmt.Fprintf(out, "Checked URLs (%d):\n\n", len(urls))
	for _, u := range urls {
		fmt.Fprintf(out, "  • %s\n", u)
	}
	fmt.Fprintln(out, "\nUse 'phishscan history <url>' to see the history of a URL.")
	return nil
}

// listTrainingRuns lists every recorded training run.
func listTrainingRuns(ctx context.Context, out io.Writer, db *database.ResultDB) error {
	runs, err := db.TrainingRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list training runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No training runs found in the database.")
		fmt.Fprintln(out, "\nUse 'phishscan train --dataset <csv>' to train a model.")
		return nil
	}

	fmt.Fprintf(out, "Training runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-19s  %-8s  %-6s  %-5s  %-12s  %s\n", "Date", "Accuracy", "Rounds", "Depth", "Checksum", "Dataset")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 80))
	for _, run := range runs {
		fmt.Fprintf(out, "  %-19s  %-8.4f  %-6d  %-5d  %-12s  %s\n",
			run.TrainedAt.Local().Format("2006-01-02 15:04:05"),
			run.Accuracy,
			run.Params.Rounds,
			run.Params.MaxDepth,
			shortChecksum(run.Checksum),
			run.DatasetPath,
		)
	}
	return nil
}

// shortChecksum returns the first twelve characters of a checksum.
func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

// errReportNotFound is returned when --id names no stored report.
var errReportNotFound = errors.New("report not found")

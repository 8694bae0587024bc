package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/feature"
	"github.com/nao1215/phishscan/internal/fetch"
	"github.com/nao1215/phishscan/internal/inference"
	"github.com/nao1215/phishscan/internal/lookup"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/report"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [url...]",
		Short: "Classify URLs as phishing or legitimate",
		Long: `Check extracts the thirty indicators of each URL and scores them with the
trained model.

Lexical indicators are computed from the URL string. Page indicators need
one HTTP fetch, and reputation indicators query WHOIS, DNS, a traffic rank
list, Open PageRank and a blocklist. Every network lookup has its own
timeout; a lookup that fails or times out only turns its own indicators
Neutral. Use --offline to skip the network entirely.

The Open PageRank API key is read from PHISHSCAN_OPENPAGERANK_KEY, which
may also be set in a .env file in the current directory.

Examples:
  # Check a single URL
  phishscan check https://example.com/login

  # Check many URLs, 20 at a time
  phishscan check --list urls.txt --batch 20

  # Lexical indicators only, no network access
  phishscan check --offline http://192.168.0.1/paypal.com/signin

  # Markdown report written to a file
  phishscan check --markdown -o report.md https://example.com/`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheckCmd,
	}

	// Input flags
	cmd.Flags().StringP("list", "l", "",
		"File with one URL per line, or a JSON array")
	cmd.Flags().Bool("offline", false,
		"Only compute lexical indicators (no network lookups)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent checks")

	// Model flags
	cmd.Flags().String("model", config.DefaultModelPath(),
		"Model artifact path")
	cmd.Flags().Bool("watch", false,
		"Reload the model when the artifact changes")

	// Lookup flags
	cmd.Flags().Duration("content-timeout", config.DefaultContentTimeout,
		"Timeout for the page fetch")
	cmd.Flags().Duration("reputation-timeout", config.DefaultReputationTimeout,
		"Timeout for each reputation lookup")
	cmd.Flags().String("socks5", "",
		"Fetch pages through a SOCKS5 proxy (host:port)")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not record results in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"History database directory")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCheckConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closer, err := setupLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCheck(ctx, cmd, cfg, logger)
}

// buildCheckConfig creates a Config from the configuration file and the
// command flags. Flags only override the file when given explicitly.
func buildCheckConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if cfg.ListFile, err = flags.GetString("list"); err != nil {
		return nil, err
	}
	if cfg.Offline, err = flags.GetBool("offline"); err != nil {
		return nil, err
	}
	if cfg.Watch, err = flags.GetBool("watch"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveToDB = false
	}

	if flags.Changed("batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("model") {
		if cfg.ModelPath, err = flags.GetString("model"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("content-timeout") {
		if cfg.ContentTimeout, err = flags.GetDuration("content-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("reputation-timeout") {
		if cfg.ReputationTimeout, err = flags.GetDuration("reputation-timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("socks5") {
		if cfg.SOCKS5Proxy, err = flags.GetString("socks5"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
	}

	cfg.Targets = args
	return cfg, nil
}

// runCheck checks every target and writes the report.
func runCheck(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	entries := make([]any, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		entries = append(entries, t)
	}
	if cfg.ListFile != "" {
		listed, err := loadURLList(cfg.ListFile)
		if err != nil {
			return err
		}
		entries = append(entries, listed...)
	}

	extractor, err := buildExtractor(cfg, logger)
	if err != nil {
		return err
	}

	handle := inference.NewHandle(extractor.Schema())
	if err := handle.Load(cfg.ModelPath); err != nil {
		// Checks still run; every report carries the model_unavailable status.
		logger.Warn("model not loaded", "path", cfg.ModelPath, "error", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\nRun 'phishscan train --dataset <csv>' to create a model.\n\n", err)
	}

	if cfg.Watch {
		watcher, err := startWatcher(ctx, handle, cfg.ModelPath, logger)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	var store pipeline.ReportStore
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		store = db
		logger.Debug("database opened", "path", db.Path())
	}

	scorer := inference.NewScorer(extractor, handle, inference.WithScorerLogger(logger))
	newPipeline := func() *pipeline.Pipeline {
		configOpts := []pipeline.DefaultPipelineOption{
			pipeline.WithPipelineSchema(extractor.Schema()),
			pipeline.WithPipelineOffline(cfg.Offline),
		}
		if store != nil {
			configOpts = append(configOpts, pipeline.WithPipelineStore(store))
		}
		return pipeline.DefaultPipeline(extractor, scorer, []pipeline.Option{pipeline.WithLogger(logger)}, configOpts...)
	}

	logger.Info("starting check",
		"targets", len(entries),
		"offline", cfg.Offline,
		"batchSize", cfg.BatchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// A single URL gets the detailed report.
	if len(entries) == 1 {
		if rawURL, ok := entries[0].(string); ok {
			r := model.NewCheckReport(rawURL)
			if err := newPipeline().Execute(ctx, r); err != nil {
				logger.Debug("check failed", "url", rawURL, "error", err)
			}
			return outputReport(cmd, cfg, r)
		}
	}

	reports, err := runBatchCheck(ctx, cmd, cfg, entries, extractor, newPipeline, logger)
	if err != nil {
		return err
	}
	return outputBatchReport(cmd, cfg, reports)
}

// runBatchCheck checks entries concurrently and returns the reports in
// input order. Entries that are not strings are rejected without running
// the pipeline.
func runBatchCheck(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	entries []any,
	extractor *feature.Extractor,
	newPipeline func() *pipeline.Pipeline,
	logger *slog.Logger,
) ([]*model.CheckReport, error) {
	reports := make([]*model.CheckReport, len(entries))

	var urls []string
	var positions []int
	for i, entry := range entries {
		rawURL, ok := entry.(string)
		if !ok {
			reports[i] = rejectedReport(ctx, extractor, entry)
			continue
		}
		urls = append(urls, rawURL)
		positions = append(positions, i)
	}

	progress := cmd.ErrOrStderr()
	fmt.Fprintf(progress, "Checking %d URLs (concurrency: %d)...\n", len(entries), cfg.BatchSize)
	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		newPipeline,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	done := len(entries) - len(urls)
	err := bp.ProcessBatchWithCallback(ctx, urls, func(r *model.CheckReport, index int) {
		mu.Lock()
		defer mu.Unlock()
		reports[positions[index]] = r
		done++
		fmt.Fprintf(progress, "[%d/%d] %s: %s\n", done, len(entries), r.URL, r.Status)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	fmt.Fprintf(progress, "Batch check completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))
	return reports, nil
}

// rejectedReport records why a list entry could not be checked.
func rejectedReport(ctx context.Context, extractor *feature.Extractor, entry any) *model.CheckReport {
	r := model.NewCheckReport(fmt.Sprint(entry))
	_, err := extractor.ExtractAny(ctx, entry)
	r.SetError(err)
	r.Status = inference.StatusFor(err)
	r.SimpleReport = model.NewSimpleReport(r)
	return r
}

// loadURLList reads the --list file. A file whose first non-blank
// character is '[' is decoded as a JSON array whose elements may have any
// type; otherwise every non-empty line that is not a "#" comment is a URL.
func loadURLList(path string) ([]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // list path is provided by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []any
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse URL list %s: %w", path, err)
		}
		return entries, nil
	}

	var entries []any
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return entries, nil
}

// buildExtractor wires the lookup sources enabled by cfg into an
// extractor. Offline mode wires none, so only lexical indicators are
// computed.
func buildExtractor(cfg *config.Config, logger *slog.Logger) (*feature.Extractor, error) {
	opts := []feature.Option{
		feature.WithLogger(logger),
		feature.WithShortenerHosts(cfg.ShortenerHosts...),
		feature.WithContentTimeout(cfg.ContentTimeout),
		feature.WithReputationTimeout(cfg.ReputationTimeout),
	}
	if cfg.Offline {
		return feature.NewExtractor(opts...), nil
	}

	fetchOpts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithMaxRedirects(cfg.MaxRedirects),
		fetch.WithTimeout(cfg.ContentTimeout),
	}
	if cfg.SOCKS5Proxy != "" {
		fetchOpts = append(fetchOpts, fetch.WithSOCKS5Proxy(cfg.SOCKS5Proxy))
	}
	client, err := fetch.NewClient(fetchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create page fetcher: %w", err)
	}
	opts = append(opts, feature.WithPageFetcher(client))

	if cfg.LookupWhois {
		var whois feature.RegistrationLookup = lookup.NewWhoisClient(lookup.WithWhoisTimeout(cfg.ReputationTimeout))
		whois = lookup.NewRateLimitedRegistration(whois, cfg.WhoisInterval, 1)
		opts = append(opts, feature.WithRegistrationLookup(lookup.NewCachedRegistration(whois, cfg.CacheSize, cfg.CacheTTL)))
	}

	if cfg.LookupDNS {
		opts = append(opts, feature.WithDNSLookup(lookup.NewCachedDNS(lookup.NewResolver(cfg.Nameserver), cfg.CacheSize, cfg.CacheTTL)))
	}

	if cfg.LookupTrafficRank && cfg.RankListPath != "" {
		ranks, err := lookup.LoadRankList(cfg.RankListPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("rank list loaded", "path", cfg.RankListPath, "domains", ranks.Len())
		opts = append(opts, feature.WithTrafficRank(ranks))
	}

	if cfg.LookupPageRank && cfg.OpenPageRankKey != "" {
		opr, err := lookup.NewOpenPageRank(cfg.OpenPageRankKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, feature.WithPageRank(lookup.NewCachedPageRank(opr, cfg.CacheSize, cfg.CacheTTL)))
	} else if cfg.LookupPageRank {
		logger.Debug("page rank lookup disabled", "reason", "no API key in "+config.OpenPageRankKeyEnv)
	}

	if cfg.LookupBlocklist {
		blocklist := lookup.DefaultBlocklist()
		if cfg.BlocklistPath != "" {
			if blocklist, err = lookup.LoadBlocklist(cfg.BlocklistPath); err != nil {
				return nil, err
			}
		}
		opts = append(opts, feature.WithBlocklist(blocklist))
	}

	return feature.NewExtractor(opts...), nil
}

// startWatcher reloads the model whenever the artifact is rewritten.
func startWatcher(ctx context.Context, handle *inference.Handle, modelPath string, logger *slog.Logger) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(modelPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	watcher, err := inference.NewWatcher(handle, modelPath, inference.WithWatcherLogger(logger))
	if err != nil {
		return nil, err
	}
	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("model watcher stopped", "error", err)
		}
	}()
	return watcher, nil
}

// newReportWriter returns the writer for the format selected in cfg.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// outputReport writes the report of a single check.
func outputReport(cmd *cobra.Command, cfg *config.Config, r *model.CheckReport) error {
	out, closer, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	_, err = reportWriter(cmd, cfg, out).Write(r)
	return err
}

// outputBatchReport writes the reports of a batch check.
func outputBatchReport(cmd *cobra.Command, cfg *config.Config, reports []*model.CheckReport) error {
	out, closer, err := openOutput(cmd, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	_, err = reportWriter(cmd, cfg, out).WriteBatch(reports)
	return err
}

// reportWriter returns the writer for out. When a JSON or Markdown report
// goes to a file, the text report is printed to stdout as well.
func reportWriter(cmd *cobra.Command, cfg *config.Config, out io.Writer) report.Writer {
	w := newReportWriter(cfg, out)
	if cfg.ReportFile == "" || (!cfg.JSONReport && !cfg.MarkdownReport) {
		return w
	}
	return report.NewMultiWriter(w, report.NewSimpleWriter(cmd.OutOrStdout()))
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChenghaoMou/edgar-crawler/internal/cache"
	"github.com/ChenghaoMou/edgar-crawler/internal/config"
	"github.com/ChenghaoMou/edgar-crawler/internal/edgar"
	"github.com/ChenghaoMou/edgar-crawler/internal/fetch"
	"github.com/ChenghaoMou/edgar-crawler/internal/log"
	"github.com/ChenghaoMou/edgar-crawler/internal/model"
	"github.com/ChenghaoMou/edgar-crawler/internal/pipeline"
	"github.com/ChenghaoMou/edgar-crawler/internal/report"
	"github.com/ChenghaoMou/edgar-crawler/internal/store"
)

// reportObjectName is the file name of the JSON report copy persisted
// next to the batches after every run.
const reportObjectName = "crawl-report.json"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl EDGAR indexes and download filing exhibits",
		Long: `Crawl downloads SEC EDGAR quarterly master indexes, filters them by
form type, and collects the matching exhibit documents from each
filing's index page.

Progress is resumable: every fetch lands in a local cache and finished
pages are skipped on the next run, so interrupting a crawl loses at
most the pages in flight.

The SEC fair-access policy requires a User-Agent header with operator
contact information. Set it once in .edgar-crawler.yaml or pass
--user-agent on each run.

Examples:
  # Crawl the current year with default filters (10-K, 10-Q, 8-K / EX-10)
  edgar-crawler crawl --user-agent "Jane Doe jane@example.com"

  # Crawl a historical window
  edgar-crawler crawl --start-year 2019 --end-year 2021

  # First quarter only, 10-K filings, four workers
  edgar-crawler crawl --quarters 1 --filing-types 10-K --workers 4

  # Write a JSON report to a file
  edgar-crawler crawl --json -o report.json

  # Use a custom configuration file
  edgar-crawler crawl -c myconfig.yaml`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	defaults := config.NewConfig()

	// Crawl window flags
	cmd.Flags().Int("start-year", defaults.StartYear,
		"First year of the crawl range (1993 or later)")
	cmd.Flags().Int("end-year", defaults.EndYear,
		"Last year of the crawl range")
	cmd.Flags().IntSliceP("quarters", "q", nil,
		"Quarters to crawl within each year (1-4, default all)")

	// Filter flags
	cmd.Flags().StringSlice("filing-types", defaults.FilingTypes,
		"Form types to retain from the indexes")
	cmd.Flags().StringSlice("exhibit-types", defaults.ExhibitTypes,
		"Exhibit type families to collect")

	// Politeness flags
	cmd.Flags().StringP("user-agent", "u", defaults.UserAgent,
		"User-Agent header with operator contact information")
	cmd.Flags().Float64("rate", defaults.RequestsPerSecond,
		"Maximum requests per second against EDGAR")
	cmd.Flags().DurationP("timeout", "t", defaults.Timeout,
		"Timeout for each request")

	// Collection behavior flags
	cmd.Flags().IntP("max-pages", "p", defaults.MaxFilingPages,
		"Maximum filing index pages per run (0 = no cap)")
	cmd.Flags().IntP("workers", "w", defaults.Workers,
		"Number of filing pages processed concurrently")
	cmd.Flags().Int("max-retry-passes", defaults.MaxRetryPasses,
		"Retry passes over failed units before giving up (0 = keep trying)")
	cmd.Flags().Bool("skip-existing", defaults.SkipExisting,
		"Reuse batches already on disk instead of re-fetching their pages")

	// Location flags
	cmd.Flags().String("output-dir", defaults.OutputDir,
		"Directory exhibit batches are written to")
	cmd.Flags().String("data-dir", defaults.DataDir,
		"Directory the fetch cache database lives in")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .edgar-crawler.yaml in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	// Build config from defaults, config file and flags
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the config file and cobra command flags.
// Values layer: built-in defaults, then the config file, then flags the
// user set explicitly.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = configPath

	// If the user explicitly specified a config file path, error if not
	// found. A missing default file just means built-in defaults.
	found := config.FindConfigFile(configPath)
	if found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		file.Apply(cfg)
	} else if configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlags copies flag values onto the config. Flags that overlap config
// file settings only apply when set explicitly, so a typed flag always
// beats the file.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("start-year") {
		if cfg.StartYear, err = flags.GetInt("start-year"); err != nil {
			return err
		}
	}
	if flags.Changed("end-year") {
		if cfg.EndYear, err = flags.GetInt("end-year"); err != nil {
			return err
		}
	}
	if flags.Changed("quarters") {
		if cfg.Quarters, err = flags.GetIntSlice("quarters"); err != nil {
			return err
		}
	}
	if flags.Changed("filing-types") {
		if cfg.FilingTypes, err = flags.GetStringSlice("filing-types"); err != nil {
			return err
		}
	}
	if flags.Changed("exhibit-types") {
		if cfg.ExhibitTypes, err = flags.GetStringSlice("exhibit-types"); err != nil {
			return err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}
	if flags.Changed("rate") {
		if cfg.RequestsPerSecond, err = flags.GetFloat64("rate"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxFilingPages, err = flags.GetInt("max-pages"); err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("max-retry-passes") {
		if cfg.MaxRetryPasses, err = flags.GetInt("max-retry-passes"); err != nil {
			return err
		}
	}
	if flags.Changed("skip-existing") {
		if cfg.SkipExisting, err = flags.GetBool("skip-existing"); err != nil {
			return err
		}
	}
	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("data-dir") {
		if cfg.DataDir, err = flags.GetString("data-dir"); err != nil {
			return err
		}
	}

	// Report flags have no config file counterpart
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}

	return nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"start_year", cfg.StartYear,
		"end_year", cfg.EndYear,
		"filing_types", cfg.FilingTypes,
		"exhibit_types", cfg.ExhibitTypes,
		"workers", cfg.Workers,
	)

	// Open the fetch cache. A second run of the same window answers
	// from here instead of hitting EDGAR again.
	fetchCache, err := cache.Open(cfg.DataDir, cache.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open fetch cache: %w", err)
	}
	defer fetchCache.Close()
	logger.Info("fetch cache opened", "path", fetchCache.Path())

	// Rate-limited HTTP client behind the cache
	client := fetch.NewClient(
		&http.Client{Timeout: cfg.Timeout},
		fetch.WithRate(cfg.RequestsPerSecond),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithAttempts(cfg.RetryAttempts),
		fetch.WithBackoff(cfg.RetryBackoff),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)
	fetcher := edgar.NewCachedFetcher(fetchCache, client)

	// Output store for exhibit batches
	batches, err := store.NewLocalStore(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to open batch store: %w", err)
	}
	logger.Info("batch store opened", "dir", batches.Dir())

	p := pipeline.DefaultPipeline(fetcher, batches, cfg,
		pipeline.WithLogger(logger),
	)

	crawlReport := model.NewCrawlReport(cfg.StartYear, cfg.EndYear, cfg.FilingTypes, cfg.ExhibitTypes)

	fmt.Printf("Crawling EDGAR %d-%d...\n", cfg.StartYear, cfg.EndYear)
	startTime := time.Now()

	// Execute the pipeline
	execErr := p.Execute(ctx, crawlReport)
	crawlReport.Finish(execErr)

	elapsed := time.Since(startTime)
	fmt.Printf("Crawl finished in %s\n\n", elapsed.Round(time.Millisecond))

	// The report is written even for a failed run so partial progress
	// and stuck documents stay visible.
	if err := outputReport(cfg, crawlReport); err != nil {
		logger.Error("report failed", "error", err)
		if execErr == nil {
			execErr = err
		}
	}

	// Persist a machine-readable copy next to the batches
	if err := persistReport(ctx, batches, crawlReport, logger); err != nil {
		logger.Error("failed to persist crawl report", "error", err)
	}

	return execErr
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, crawlReport *model.CrawlReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(crawlReport)
	return err
}

// persistReport stores a versioned JSON copy of the report next to the
// batches, so every output directory records how it was produced.
func persistReport(ctx context.Context, blobs store.BlobStore, crawlReport *model.CrawlReport, logger *slog.Logger) error {
	var buf bytes.Buffer
	w := report.NewFullJSONWriter(&buf, getVersion(), report.WithPrettyPrint())
	if _, err := w.Write(crawlReport); err != nil {
		return err
	}

	path, err := blobs.PutObject(ctx, reportObjectName, buf.Bytes())
	if err != nil {
		return err
	}

	logger.Info("crawl report persisted", "path", path)
	return nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChenghaoMou/edgar-crawler/internal/config"
	"github.com/ChenghaoMou/edgar-crawler/internal/edgar"
	"github.com/ChenghaoMou/edgar-crawler/internal/model"
	"github.com/ChenghaoMou/edgar-crawler/internal/store"
)

// CollectExhibitsStep visits each filtered filing's index page, locates the
// exhibit documents matching the configured type families, downloads their
// content, and persists one batch per page.
//
// Design decision: We fan whole pages out to a bounded worker pool rather
// than parallelizing inside a page because:
// 1. A batch is written exactly once, only after every exhibit resolves;
//    one page per worker keeps that guarantee without coordination
// 2. The shared rate limiter already paces the actual requests, so the
//    worker count controls pipelining, not politeness
// 3. Page failures stay independent: one stuck page never blocks the rest
type CollectExhibitsStep struct {
	// fetcher resolves page and document URLs through the fetch cache.
	fetcher edgar.Fetcher

	// batches is where completed page batches are persisted.
	batches store.BatchStore

	// exhibitTypes are the type families to collect, e.g. "EX-10".
	exhibitTypes []string

	// maxPages caps how many filing pages this run visits. 0 means no cap.
	maxPages int

	// workers is the number of pages processed concurrently.
	workers int

	// maxRetryPasses bounds the retry loop for failed documents.
	// 0 means no ceiling.
	maxRetryPasses int

	// skipExisting skips pages whose batch already exists in the store.
	skipExisting bool

	// logger for structured logging.
	logger *slog.Logger
}

// CollectStepOption configures a CollectExhibitsStep.
type CollectStepOption func(*CollectExhibitsStep)

// WithCollectMaxPages caps how many filing pages one run visits.
// 0 removes the cap.
func WithCollectMaxPages(n int) CollectStepOption {
	return func(s *CollectExhibitsStep) {
		s.maxPages = n
	}
}

// WithCollectWorkers sets the number of pages processed concurrently.
// Values below 1 are ignored.
func WithCollectWorkers(n int) CollectStepOption {
	return func(s *CollectExhibitsStep) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithCollectRetryPasses bounds the retry loop for failed documents.
// 0 means retry until every document resolves or the context is cancelled.
func WithCollectRetryPasses(n int) CollectStepOption {
	return func(s *CollectExhibitsStep) {
		s.maxRetryPasses = n
	}
}

// WithCollectSkipExisting controls whether pages with an existing batch are
// skipped. On by default; turning it off forces a full re-collection.
func WithCollectSkipExisting(skip bool) CollectStepOption {
	return func(s *CollectExhibitsStep) {
		s.skipExisting = skip
	}
}

// WithCollectLogger sets a custom logger for the collection step.
func WithCollectLogger(logger *slog.Logger) CollectStepOption {
	return func(s *CollectExhibitsStep) {
		s.logger = logger
	}
}

// NewCollectExhibitsStep creates a new exhibit collection step.
func NewCollectExhibitsStep(fetcher edgar.Fetcher, batches store.BatchStore, exhibitTypes []string, opts ...CollectStepOption) *CollectExhibitsStep {
	s := &CollectExhibitsStep{
		fetcher:      fetcher,
		batches:      batches,
		exhibitTypes: exhibitTypes,
		maxPages:     config.DefaultMaxFilingPages,
		workers:      config.DefaultWorkers,
		skipExisting: true,
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CollectExhibitsStep) Name() string {
	return "collect_exhibits"
}

// Do executes the collection step.
//
// Pages are processed independently: a page that fails to parse or gets
// stuck downloading is recorded in the report and the remaining pages still
// run. The combined failures come back as one joined error so the operator
// sees them, with the report carrying the partial progress. Store errors
// abort the step: a broken output directory would fail every page the
// same way.
func (s *CollectExhibitsStep) Do(ctx context.Context, report *model.CrawlReport) error {
	pages := report.Filings
	if s.maxPages > 0 && len(pages) > s.maxPages {
		s.logger.Info("applying page cap", "cap", s.maxPages, "matched", len(pages))
		pages = pages[:s.maxPages]
	}
	if len(pages) == 0 {
		s.logger.Info("no filing pages to collect")
		return nil
	}

	locator := edgar.NewLocator(s.fetcher, s.exhibitTypes, edgar.WithLocatorLogger(s.logger))
	downloader := edgar.NewDownloader(s.fetcher, s.batches,
		edgar.WithDownloadLogger(s.logger),
		edgar.WithDownloadRetryPasses(s.maxRetryPasses),
		edgar.WithSkipExisting(s.skipExisting),
	)

	s.logger.Info("collecting exhibits",
		"pages", len(pages),
		"workers", s.workers,
		"exhibit_types", s.exhibitTypes,
	)

	startTime := time.Now()

	// mu guards the report and the failure list; retrieved feeds the
	// running progress count.
	var (
		mu        sync.Mutex
		failures  []error
		retrieved atomic.Int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, filing := range pages {
		g.Go(func() error {
			// Check for cancellation before starting
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			key := model.PageKey(filing.IndexHTMLURL)

			if s.skipExisting {
				exists, err := s.batches.Exists(ctx, key)
				if err != nil {
					return fmt.Errorf("check page %s: %w", key, err)
				}
				if exists {
					mu.Lock()
					report.PagesSkipped++
					mu.Unlock()
					s.logger.Debug("page already collected", "page_key", key)
					return nil
				}
			}

			batch, err := locator.Locate(ctx, filing)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// Record and move on: the other pages are unaffected
				s.logger.Warn("filing page failed",
					"url", filing.IndexHTMLURL,
					"error", err,
				)
				mu.Lock()
				report.AddStuck(filing.IndexHTMLURL)
				failures = append(failures, fmt.Errorf("page %s: %w", key, err))
				mu.Unlock()
				return nil
			}

			mu.Lock()
			report.PagesProcessed++
			mu.Unlock()

			if len(batch.Exhibits) == 0 {
				mu.Lock()
				report.PagesWithoutExhibits++
				mu.Unlock()
				return nil
			}

			final, reused, err := downloader.Download(ctx, batch)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				var stuck *edgar.StuckError
				if errors.As(err, &stuck) {
					mu.Lock()
					for _, unit := range stuck.Outstanding {
						report.AddStuck(unit)
					}
					if stuck.Passes > report.RetryPasses {
						report.RetryPasses = stuck.Passes
					}
					failures = append(failures, fmt.Errorf("page %s: %w", key, err))
					mu.Unlock()
					return nil
				}
				return fmt.Errorf("download page %s: %w", key, err)
			}

			mu.Lock()
			if reused {
				report.PagesSkipped++
			} else {
				report.AddBatch(final)
			}
			mu.Unlock()

			s.logger.Info("page collected",
				"page_key", key,
				"company", filing.CompanyName,
				"exhibits", len(final.Exhibits),
				"retrieved_total", retrieved.Add(int64(len(final.Exhibits))),
			)

			return nil
		})
	}

	err := g.Wait()

	// All workers have returned; the report is safe to read unlocked
	s.logger.Info("collection completed",
		"pages_processed", report.PagesProcessed,
		"pages_skipped", report.PagesSkipped,
		"pages_without_exhibits", report.PagesWithoutExhibits,
		"exhibits", report.ExhibitCount,
		"elapsed", time.Since(startTime),
	)

	if err != nil {
		return err
	}
	return errors.Join(failures...)
}

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ChenghaoMou/edgar-crawler/internal/config"
	"github.com/ChenghaoMou/edgar-crawler/internal/edgar"
	"github.com/ChenghaoMou/edgar-crawler/internal/model"
	"github.com/ChenghaoMou/edgar-crawler/internal/store"
)

// AcquireIndicesStep downloads the quarterly master indexes for the crawl
// range. This step is the foundation of the run: every later step works on
// the index lines it acquires.
//
// Design decision: Index acquisition is a separate step because:
// 1. It's the only stage that talks to the full-index endpoint
// 2. Its retry discipline (queue and re-force) differs from page fetching
// 3. Results are reusable: a cached index serves any later filter
type AcquireIndicesStep struct {
	// fetcher resolves index URLs through the fetch cache.
	fetcher edgar.Fetcher

	// startYear and endYear bound the crawl range, inclusive.
	startYear int
	endYear   int

	// quarters restricts the range to the given quarters. Empty means
	// all four.
	quarters []int

	// maxRetryPasses bounds the retry loop for failed quarters.
	// 0 means no ceiling.
	maxRetryPasses int

	// clock returns the current time, for deciding which quarters have
	// elapsed. Overridable for tests.
	clock func() time.Time

	// logger for structured logging.
	logger *slog.Logger
}

// AcquireStepOption configures an AcquireIndicesStep.
type AcquireStepOption func(*AcquireIndicesStep)

// WithAcquireQuarters restricts acquisition to the given quarters (1-4).
func WithAcquireQuarters(quarters []int) AcquireStepOption {
	return func(s *AcquireIndicesStep) {
		s.quarters = quarters
	}
}

// WithAcquireRetryPasses bounds the retry loop for failed quarters.
// 0 means retry until every quarter resolves or the context is cancelled.
func WithAcquireRetryPasses(n int) AcquireStepOption {
	return func(s *AcquireIndicesStep) {
		s.maxRetryPasses = n
	}
}

// WithAcquireClock overrides the clock used for future-quarter detection.
func WithAcquireClock(clock func() time.Time) AcquireStepOption {
	return func(s *AcquireIndicesStep) {
		s.clock = clock
	}
}

// WithAcquireLogger sets a custom logger for the acquisition step.
func WithAcquireLogger(logger *slog.Logger) AcquireStepOption {
	return func(s *AcquireIndicesStep) {
		s.logger = logger
	}
}

// NewAcquireIndicesStep creates a new index acquisition step for the
// inclusive year range.
func NewAcquireIndicesStep(fetcher edgar.Fetcher, startYear, endYear int, opts ...AcquireStepOption) *AcquireIndicesStep {
	s := &AcquireIndicesStep{
		fetcher:   fetcher,
		startYear: startYear,
		endYear:   endYear,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *AcquireIndicesStep) Name() string {
	return "acquire_indices"
}

// Do executes the index acquisition step.
// Acquired and skipped quarters are recorded in the report even when the
// stage gets stuck, so partial progress survives the error.
func (s *AcquireIndicesStep) Do(ctx context.Context, report *model.CrawlReport) error {
	indexerOpts := []edgar.IndexerOption{
		edgar.WithIndexLogger(s.logger),
		edgar.WithIndexRetryPasses(s.maxRetryPasses),
	}
	if s.clock != nil {
		indexerOpts = append(indexerOpts, edgar.WithClock(s.clock))
	}
	indexer := edgar.NewIndexer(s.fetcher, indexerOpts...)

	acquired, skipped, err := indexer.AcquireIndices(ctx, s.startYear, s.endYear, s.quarters)

	for _, q := range acquired {
		report.AddQuarter(q)
	}
	report.SkippedQuarters = skipped

	if err != nil {
		var stuck *edgar.StuckError
		if errors.As(err, &stuck) {
			for _, unit := range stuck.Outstanding {
				report.AddStuck(unit)
			}
			if stuck.Passes > report.RetryPasses {
				report.RetryPasses = stuck.Passes
			}
		}
		return err
	}

	s.logger.Info("index acquisition completed",
		"quarters", len(report.Quarters),
		"skipped", len(report.SkippedQuarters),
		"lines", report.IndexLineCount,
	)

	return nil
}

// FilterFilingsStep reduces the acquired index lines to the filings whose
// form type is in the configured set.
//
// Design decision: Filtering is a separate step even though it's pure
// because:
// 1. It gives the filter its own progress line in the run log
// 2. The page cap in collection applies to filtered rows, so the split
//    must happen before pages are visited
// 3. It keeps index parsing concerns out of the collection stage
type FilterFilingsStep struct {
	// filingTypes are the form types to retain. Matching is exact.
	filingTypes []string

	// logger for structured logging.
	logger *slog.Logger
}

// FilterStepOption configures a FilterFilingsStep.
type FilterStepOption func(*FilterFilingsStep)

// WithFilterLogger sets a custom logger for the filter step.
func WithFilterLogger(logger *slog.Logger) FilterStepOption {
	return func(s *FilterFilingsStep) {
		s.logger = logger
	}
}

// NewFilterFilingsStep creates a new filing filter step.
func NewFilterFilingsStep(filingTypes []string, opts ...FilterStepOption) *FilterFilingsStep {
	s := &FilterFilingsStep{
		filingTypes: filingTypes,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *FilterFilingsStep) Name() string {
	return "filter_filings"
}

// Do executes the filter step.
func (s *FilterFilingsStep) Do(_ context.Context, report *model.CrawlReport) error {
	filings := edgar.FilterFilings(report.Quarters, s.filingTypes)
	report.SetFilings(filings)

	s.logger.Info("filter completed",
		"matched", report.FilingCount,
		"lines_scanned", report.IndexLineCount,
		"filing_types", s.filingTypes,
	)

	return nil
}

// DefaultPipeline creates a pipeline with the three crawl steps configured
// from cfg: acquire_indices, filter_filings, collect_exhibits.
//
// Design decision: We provide a default pipeline because:
// 1. The step order is fixed by the data flow and should not be re-derived
//    at every call site
// 2. It keeps the CLI free of step-level wiring
// 3. Config handling stays in one place
func DefaultPipeline(fetcher edgar.Fetcher, batches store.BatchStore, cfg *config.Config, pipelineOpts ...Option) *Pipeline {
	p := New(pipelineOpts...)

	p.AddSteps(
		NewAcquireIndicesStep(fetcher, cfg.StartYear, cfg.EndYear,
			WithAcquireQuarters(cfg.Quarters),
			WithAcquireRetryPasses(cfg.MaxRetryPasses),
		),
		NewFilterFilingsStep(cfg.FilingTypes),
		NewCollectExhibitsStep(fetcher, batches, cfg.ExhibitTypes,
			WithCollectMaxPages(cfg.MaxFilingPages),
			WithCollectWorkers(cfg.Workers),
			WithCollectRetryPasses(cfg.MaxRetryPasses),
			WithCollectSkipExisting(cfg.SkipExisting),
		),
	)

	return p
}

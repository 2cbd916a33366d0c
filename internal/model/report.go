package model

import (
	"time"
)

// CrawlReport is the main crawl result structure. It accumulates state as
// the pipeline steps run and is what the report writers render at the end.
//
// Design decision: We use a single large struct rather than many small ones
// because the pipeline steps communicate through it. Each step reads what
// the previous step stored and appends its own results, so the report
// doubles as the shared working state of a run.
type CrawlReport struct {
	// === Basic Information ===

	// StartYear and EndYear bound the crawl range, inclusive.
	StartYear int `json:"start_year"`
	EndYear   int `json:"end_year"`

	// FilingTypes are the form types the run filtered for, e.g. ["10-K"].
	FilingTypes []string `json:"filing_types"`

	// ExhibitTypes are the exhibit type families the run collected,
	// e.g. ["EX-10"].
	ExhibitTypes []string `json:"exhibit_types"`

	// DateStarted is when the run began.
	DateStarted time.Time `json:"date_started"`

	// DateFinished is when the run ended, zero while running.
	DateFinished time.Time `json:"date_finished,omitzero"`

	// === Index Acquisition ===

	// Quarters are the quarterly indexes acquired, in chronological order.
	// Excluded from JSON: one quarter can hold hundreds of thousands of
	// raw lines.
	Quarters []*QuarterIndex `json:"-"`

	// QuarterKeys lists the acquired quarters, e.g. "2023-QTR1".
	QuarterKeys []string `json:"quarter_keys,omitempty"`

	// SkippedQuarters lists quarters skipped because they lie in the
	// future and have no index yet.
	SkippedQuarters []string `json:"skipped_quarters,omitempty"`

	// IndexLineCount is the total number of raw index lines acquired.
	IndexLineCount int `json:"index_line_count"`

	// === Filter Data ===

	// Filings are the index rows that matched the form-type filter.
	// Excluded from JSON due to size; FilingCount is serialized instead.
	Filings []*Filing `json:"-"`

	// FilingCount is len(Filings).
	FilingCount int `json:"filing_count"`

	// === Exhibit Collection ===

	// Batches are the completed page batches of the run. Excluded from
	// JSON: exhibit bodies can run to megabytes each.
	Batches []*Batch `json:"-"`

	// PagesProcessed counts filing index pages fetched and parsed.
	PagesProcessed int `json:"pages_processed"`

	// PagesSkipped counts pages skipped because their batch already
	// existed on disk from an earlier run.
	PagesSkipped int `json:"pages_skipped"`

	// PagesWithoutExhibits counts pages whose document table held no
	// matching exhibit types.
	PagesWithoutExhibits int `json:"pages_without_exhibits"`

	// ExhibitCount counts exhibits downloaded and persisted in this run.
	ExhibitCount int `json:"exhibit_count"`

	// === Run State ===

	// RetryPasses is the highest number of retry passes a stuck stage
	// burned before giving up. 0 on a clean run.
	RetryPasses int `json:"retry_passes"`

	// Stuck lists units that still failed when the retry ceiling was
	// reached. Empty on a clean run.
	Stuck []string `json:"stuck,omitempty"`

	// TimedOut is true if the run was terminated by its deadline.
	TimedOut bool `json:"timed_out"`

	// PerformedSteps lists the pipeline steps that actually ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that aborted the run.
	Error error `json:"-"` // Excluded from JSON

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewCrawlReport creates a report for the given crawl range.
func NewCrawlReport(startYear, endYear int, filingTypes, exhibitTypes []string) *CrawlReport {
	return &CrawlReport{
		StartYear:    startYear,
		EndYear:      endYear,
		FilingTypes:  filingTypes,
		ExhibitTypes: exhibitTypes,
		DateStarted:  time.Now(),
	}
}

// AddQuarter records one acquired quarterly index.
func (r *CrawlReport) AddQuarter(q *QuarterIndex) {
	r.Quarters = append(r.Quarters, q)
	r.QuarterKeys = append(r.QuarterKeys, q.Key())
	r.IndexLineCount += len(q.Lines)
}

// SetFilings stores the filter result and its count.
func (r *CrawlReport) SetFilings(filings []*Filing) {
	r.Filings = filings
	r.FilingCount = len(filings)
}

// AddBatch records one completed page batch.
// Batches already persisted by earlier runs are counted via PagesSkipped
// instead, so ExhibitCount only reflects work done in this run.
func (r *CrawlReport) AddBatch(b *Batch) {
	r.Batches = append(r.Batches, b)
	r.ExhibitCount += len(b.Exhibits)
}

// AddStuck records a unit that exhausted the retry ceiling.
// Duplicates are dropped so repeated passes do not inflate the list.
func (r *CrawlReport) AddStuck(unit string) {
	for _, s := range r.Stuck {
		if s == unit {
			return
		}
	}
	r.Stuck = append(r.Stuck, unit)
}

// Finish stamps the end time and captures err for serialization.
func (r *CrawlReport) Finish(err error) {
	r.DateFinished = time.Now()
	if err != nil {
		r.Error = err
		r.ErrorMessage = err.Error()
	}
}

// Duration returns the wall-clock duration of the run. While the run is
// still going it measures up to now.
func (r *CrawlReport) Duration() time.Duration {
	if r.DateFinished.IsZero() {
		return time.Since(r.DateStarted)
	}
	return r.DateFinished.Sub(r.DateStarted)
}

package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to comply with the SEC EDGAR fair-access policy
// and match the behavior of earlier versions of this crawler where applicable.
const (
	// DefaultRequestsPerSecond is the shared request rate across all EDGAR
	// calls. The SEC fair-access policy allows at most 10 requests per
	// second per client; 5 leaves headroom so bursts from retries never
	// cross the line.
	DefaultRequestsPerSecond = 5

	// DefaultTimeout is the per-request timeout. EDGAR archive responses
	// are usually fast, but quarterly master indexes run to tens of
	// megabytes, so the timeout is generous.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryAttempts is the total number of tries per HTTP request,
	// the first attempt included. EDGAR intermittently returns 403 and 503
	// under load; five attempts with backoff rides out most of it.
	DefaultRetryAttempts = 5

	// DefaultRetryBackoff is the base backoff between attempts. Attempt n
	// sleeps backoff * 2^(n-1), so 500ms gives 0.5s, 1s, 2s, 4s.
	DefaultRetryBackoff = 500 * time.Millisecond

	// DefaultMaxBodySize limits the response body size to read. Quarterly
	// master.zip archives are the largest objects fetched; 64MB covers
	// every quarter published to date while bounding memory use.
	DefaultMaxBodySize = 64 * 1024 * 1024 // 64MB

	// DefaultMaxFilingPages caps how many filing index pages one run
	// processes. Kept small so a fresh run finishes in minutes; raise it
	// or set 0 (no cap) for full harvests.
	DefaultMaxFilingPages = 50

	// DefaultMaxRetryPasses is the ceiling on full retry passes over
	// failed quarters or documents. 0 means retry until everything
	// succeeds or the context is cancelled, matching the crawler's
	// original keep-trying behavior.
	DefaultMaxRetryPasses = 0

	// DefaultWorkers is the number of filing pages processed concurrently.
	// 1 preserves strictly sequential crawling; the shared rate limiter
	// keeps higher values polite.
	DefaultWorkers = 1

	// DefaultUserAgent identifies the crawler in HTTP requests. The SEC
	// requires a contact address in the User-Agent; operators must replace
	// the placeholder with their own before crawling at volume.
	DefaultUserAgent = "edgar-crawler/2.0 (admin@example.com)"

	// AppName is the application name used for XDG directory paths.
	AppName = "edgar-crawler"

	// MinYear is the first year EDGAR publishes quarterly full indexes
	// for. Requests for earlier years can only 404.
	MinYear = 1993
)

// Default type filters. Variables rather than constants because Go has no
// constant slices; treat them as read-only.
var (
	// DefaultFilingTypes are the form types retained from the quarterly
	// indexes.
	DefaultFilingTypes = []string{"10-K", "10-Q", "8-K"}

	// DefaultExhibitTypes are the exhibit type families collected from
	// filing pages. "EX-10" covers material contracts: EX-10, EX-10.1,
	// EX-10.99 and so on.
	DefaultExhibitTypes = []string{"EX-10"}
)

// Config holds all configuration options for the crawler.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, StoreConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// StartYear is the first year of the crawl range, inclusive.
	StartYear int

	// EndYear is the last year of the crawl range, inclusive.
	EndYear int

	// Quarters restricts the crawl to the given quarters (1-4) of each
	// year. Empty means all four.
	Quarters []int

	// FilingTypes are the form types retained by the index filter,
	// e.g. "10-K". Matching is exact.
	FilingTypes []string

	// ExhibitTypes are the exhibit type families collected from filing
	// pages, e.g. "EX-10". A document matches when its type equals the
	// family or extends it with a dotted suffix.
	ExhibitTypes []string

	// UserAgent is the User-Agent header sent with every request.
	// The SEC fair-access policy requires it to carry operator contact
	// information; EDGAR blocks anonymous clients.
	UserAgent string

	// RequestsPerSecond is the shared request rate across all EDGAR calls.
	RequestsPerSecond float64

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RetryAttempts is the total number of tries per request.
	RetryAttempts int

	// RetryBackoff is the base backoff between attempts.
	RetryBackoff time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this fail the request. Set to 0 to use the
	// default.
	MaxBodySize int64

	// MaxFilingPages caps how many filing index pages one run processes.
	// 0 means no cap.
	MaxFilingPages int

	// MaxRetryPasses is the ceiling on full retry passes over failed
	// quarters or documents before the run gives up and reports the
	// stuck units. 0 means no ceiling.
	MaxRetryPasses int

	// Workers is the number of filing pages processed concurrently.
	Workers int

	// SkipExisting reuses batches already on disk instead of re-fetching
	// their pages. Turning it off forces a full re-crawl.
	SkipExisting bool

	// OutputDir is where exhibit batches are written, one .jsonl file per
	// filing page. Defaults to <XDG data dir>/batches.
	OutputDir string

	// DataDir is where the fetch cache database lives.
	// Defaults to the XDG data directory.
	DataDir string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .edgar-crawler.yaml in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the crawl summary report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., rate, retry counts).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	currentYear := time.Now().Year()
	return &Config{
		StartYear:         currentYear,
		EndYear:           currentYear,
		FilingTypes:       append([]string(nil), DefaultFilingTypes...),
		ExhibitTypes:      append([]string(nil), DefaultExhibitTypes...),
		UserAgent:         DefaultUserAgent,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Timeout:           DefaultTimeout,
		RetryAttempts:     DefaultRetryAttempts,
		RetryBackoff:      DefaultRetryBackoff,
		MaxBodySize:       DefaultMaxBodySize,
		MaxFilingPages:    DefaultMaxFilingPages,
		MaxRetryPasses:    DefaultMaxRetryPasses,
		Workers:           DefaultWorkers,
		SkipExisting:      true,
		OutputDir:         filepath.Join(XDGDataDir(), "batches"),
		DataDir:           XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for the crawler.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/edgar-crawler
// On macOS: ~/Library/Application Support/edgar-crawler
// On Windows: %LOCALAPPDATA%\edgar-crawler
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the crawler.
// On Linux: ~/.config/edgar-crawler
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for the crawler.
// On Linux: ~/.cache/edgar-crawler
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// EDGAR has no quarterly indexes before MinYear
	if c.StartYear < MinYear {
		return ErrInvalidYearRange
	}
	if c.EndYear < c.StartYear {
		return ErrInvalidYearRange
	}

	// Quarters outside 1-4 can never match an index
	for _, q := range c.Quarters {
		if q < 1 || q > 4 {
			return ErrInvalidQuarter
		}
	}

	// An empty filter would retain nothing and the run would be a no-op
	if len(c.FilingTypes) == 0 {
		return ErrNoFilingTypes
	}
	if len(c.ExhibitTypes) == 0 {
		return ErrNoExhibitTypes
	}

	// EDGAR rejects anonymous clients
	if c.UserAgent == "" {
		return ErrNoUserAgent
	}

	// Zero rate would block the first request forever
	if c.RequestsPerSecond <= 0 {
		return ErrInvalidRate
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// At least one attempt is needed for a request to happen at all
	if c.RetryAttempts <= 0 {
		return ErrInvalidRetryAttempts
	}

	// Negative backoff is invalid; 0 means retry immediately
	if c.RetryBackoff < 0 {
		return ErrInvalidRetryBackoff
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	// Negative caps are invalid; 0 means uncapped
	if c.MaxFilingPages < 0 {
		return ErrInvalidMaxFilingPages
	}
	if c.MaxRetryPasses < 0 {
		return ErrInvalidMaxRetryPasses
	}

	// Workers must be positive; zero would mean no page processing
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// EffectiveQuarters returns the quarters to crawl per year, expanding the
// empty filter to all four.
func (c *Config) EffectiveQuarters() []int {
	if len(c.Quarters) == 0 {
		return []int{1, 2, 3, 4}
	}
	return c.Quarters
}

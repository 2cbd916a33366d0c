package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrInvalidYearRange is returned when the year range is reversed or
	// starts before EDGAR publishes quarterly indexes (1993).
	ErrInvalidYearRange = errors.New("invalid year range: start must be >= 1993 and <= end")

	// ErrInvalidQuarter is returned when a quarter filter value lies
	// outside 1-4.
	ErrInvalidQuarter = errors.New("invalid quarter: must be between 1 and 4")

	// ErrNoFilingTypes is returned when the filing type filter is empty.
	// An empty filter would retain no filings.
	ErrNoFilingTypes = errors.New("no filing types: provide at least one form type to retain")

	// ErrNoExhibitTypes is returned when the exhibit type filter is empty.
	// An empty filter would collect no exhibits.
	ErrNoExhibitTypes = errors.New("no exhibit types: provide at least one exhibit type family")

	// ErrNoUserAgent is returned when the User-Agent is empty. The SEC
	// fair-access policy requires operator contact information in it.
	ErrNoUserAgent = errors.New("no user agent: SEC requires contact information in the User-Agent header")

	// ErrInvalidRate is returned when the request rate is not positive.
	// A zero rate would block the first request forever.
	ErrInvalidRate = errors.New("invalid request rate: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	// A timeout of zero or negative would cause immediate request failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRetryAttempts is returned when the attempt count is not
	// positive. At least one attempt is needed for a request to happen.
	ErrInvalidRetryAttempts = errors.New("invalid retry attempts: must be positive")

	// ErrInvalidRetryBackoff is returned when the retry backoff is
	// negative. Use 0 to retry immediately.
	ErrInvalidRetryBackoff = errors.New("invalid retry backoff: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// A negative body size is invalid; use 0 to use the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxFilingPages is returned when the page cap is negative.
	// Use 0 to process every page.
	ErrInvalidMaxFilingPages = errors.New("invalid max filing pages: must be non-negative")

	// ErrInvalidMaxRetryPasses is returned when the retry pass ceiling is
	// negative. Use 0 to retry until success or cancellation.
	ErrInvalidMaxRetryPasses = errors.New("invalid max retry passes: must be non-negative")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	// Zero workers would mean no page processing at all.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)

package model

import (
	"crypto/md5" //nolint:gosec // Not used for security: page keys are an addressing contract
	"encoding/hex"
	"fmt"
)

// QuarterIndex holds the data lines of one quarterly master index after the
// header block has been stripped. Lines are kept raw (pipe-delimited) so the
// filter stage owns the field split.
type QuarterIndex struct {
	// Year is the index year, e.g. 2023.
	Year int `json:"year"`

	// Quarter is the index quarter in [1, 4].
	Quarter int `json:"quarter"`

	// Lines are the raw pipe-delimited data lines of master.idx.
	// Excluded from JSON: a single quarter can run to hundreds of
	// thousands of lines.
	Lines []string `json:"-"`
}

// Key returns the canonical quarter key, e.g. "2023-QTR3".
func (q QuarterIndex) Key() string {
	return fmt.Sprintf("%d-QTR%d", q.Year, q.Quarter)
}

// Filing is one master-index row that passed the form-type filter.
// Immutable once parsed.
type Filing struct {
	// CIK is the SEC Central Index Key of the filer.
	CIK string `json:"cik"`

	// CompanyName is the filer name as it appears in the index.
	CompanyName string `json:"company_name"`

	// FormType is the submission form type, e.g. "10-K".
	FormType string `json:"form_type"`

	// FilingDate is the date-filed field, "YYYY-MM-DD".
	FilingDate string `json:"filing_date"`

	// IndexTextURL is the absolute URL of the filing's raw text submission.
	IndexTextURL string `json:"index_text_url"`

	// IndexHTMLURL is the absolute URL of the filing's document index page,
	// derived from IndexTextURL by replacing ".txt" with "-index.html".
	IndexHTMLURL string `json:"index_html_url"`
}

// FilingMetadata carries the header information of a filing index page.
// ReportDate ("Period of Report") is only present on periodic filings;
// both fields are empty when the page header omits them.
type FilingMetadata struct {
	// FilingDate is the "Filing Date" value from the page header.
	FilingDate string `json:"filing_date,omitempty"`

	// ReportDate is the "Period of Report" value from the page header.
	ReportDate string `json:"report_date,omitempty"`
}

// PageKey returns the stable key of a filing index page: the md5 hex digest
// of the page URL. The same page always maps to the same key, which names
// the page's output batch on disk.
//
// md5 is an addressing contract here, not a security boundary: cache
// fingerprints and batch filenames are 32-char md5 hex, and changing the
// digest would orphan every existing cache entry and output batch.
func PageKey(indexHTMLURL string) string {
	sum := md5.Sum([]byte(indexHTMLURL)) //nolint:gosec // addressing, not auth
	return hex.EncodeToString(sum[:])
}

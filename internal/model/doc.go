// Package model defines the core data structures used throughout the crawler.
//
// This package contains the following main types:
//   - QuarterIndex: One quarterly master index, header stripped, lines raw
//   - Filing: An index row that matched the form-type filter
//   - Exhibit: One exhibit document located on a filing index page
//   - Batch: All exhibits of one page, the atomic unit of output
//   - CrawlReport: The main crawl result structure
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (edgar, store, pipeline, report) need to use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// batch storage.
package model

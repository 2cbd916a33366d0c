// Package main provides the entry point for the edgar-crawler CLI.
//
// edgar-crawler bulk-downloads exhibit documents from SEC EDGAR filings.
// It acquires quarterly master indexes, filters them by form type, and
// collects the matching exhibits from each filing's index page.
//
// Usage:
//
//	edgar-crawler crawl --start-year 2020 --end-year 2021
//	edgar-crawler crawl --filing-types 10-K --exhibit-types EX-10
//
// See --help for all available options.
package main

// main is the entry point for edgar-crawler.
func main() {
	Execute()
}

// Package edgar implements the SEC EDGAR crawl stages: acquiring quarterly
// master indices, filtering them to the configured form types, locating
// exhibit documents on filing index pages, and downloading exhibit bodies
// into output batches.
//
// Every network touch goes through the Fetcher, which layers the fetch
// cache over the rate-limited client. The indexer and downloader share one
// recovery shape: failures queue, retry passes refetch in force mode, and a
// configured pass ceiling turns an undrained queue into a *StuckError
// instead of an unbounded loop.
package edgar

package edgar

import (
	"context"

	"github.com/ChenghaoMou/edgar-crawler/internal/cache"
	"github.com/ChenghaoMou/edgar-crawler/internal/fetch"
)

const (
	// archivesBaseURL prefixes the raw filename field of every master
	// index row.
	archivesBaseURL = "https://www.sec.gov/Archives/"

	// siteBaseURL prefixes document hrefs found on filing index pages.
	siteBaseURL = "https://www.sec.gov"

	// fullIndexURLFormat locates the quarterly master index archive.
	fullIndexURLFormat = "https://www.sec.gov/Archives/edgar/full-index/%d/QTR%d/master.zip"

	// crawlOp is the cache operation name for raw URL fetches. Part of the
	// fingerprint contract: renaming it would orphan existing caches.
	crawlOp = "crawl_url"
)

// Fetcher is the cached fetch surface shared by the indexer, locator and
// downloader. Fetch answers from the cache when possible; FetchForce always
// goes to the network and refreshes the cache on success.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
	FetchForce(ctx context.Context, url string) ([]byte, error)
}

// CachedFetcher wires the fetch cache in front of the rate-limited client.
// Every network touch of a crawl goes through here, which is what makes a
// second run of the same window answer entirely from disk.
type CachedFetcher struct {
	cache  *cache.Cache
	client *fetch.Client
}

var _ Fetcher = (*CachedFetcher)(nil)

// NewCachedFetcher creates a Fetcher backed by c and client.
func NewCachedFetcher(c *cache.Cache, client *fetch.Client) *CachedFetcher {
	return &CachedFetcher{cache: c, client: client}
}

// Fetch returns the body for url, from cache when present.
func (f *CachedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	data, _, err := f.cache.Do(ctx, f.call(url), func(ctx context.Context) ([]byte, error) {
		return f.client.Fetch(ctx, url)
	})
	return data, err
}

// FetchForce refetches url from the network, overwriting the cached value
// on success. Used by retry passes where a plain Fetch could answer from a
// value that predates the failure being retried.
func (f *CachedFetcher) FetchForce(ctx context.Context, url string) ([]byte, error) {
	return f.cache.DoForce(ctx, f.call(url), func(ctx context.Context) ([]byte, error) {
		return f.client.Fetch(ctx, url)
	})
}

func (f *CachedFetcher) call(url string) cache.Call {
	return cache.Call{Op: crawlOp, Args: []string{url}}
}

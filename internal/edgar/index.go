package edgar

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"golang.org/x/text/encoding/charmap"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

const (
	// headerLineCount is the fixed preamble of master.idx: title block,
	// column legend and separator row.
	headerLineCount = 11

	// indexFieldCount is the column count of a master index row:
	// CIK|Company Name|Form Type|Date Filed|Filename.
	indexFieldCount = 5

	// masterIndexMember is the sole member of each quarterly archive.
	masterIndexMember = "master.idx"
)

// Indexer acquires quarterly master indices from the EDGAR full-index tree.
type Indexer struct {
	fetcher        Fetcher
	logger         *slog.Logger
	maxRetryPasses int
	now            func() time.Time
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithIndexLogger sets the logger used for acquisition progress.
func WithIndexLogger(logger *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// WithIndexRetryPasses bounds the retry loop for failed quarters.
// Zero retries forever, matching the crawl-to-completion default.
func WithIndexRetryPasses(n int) IndexerOption {
	return func(ix *Indexer) {
		ix.maxRetryPasses = n
	}
}

// WithClock overrides the wall clock used for the future-quarter check.
func WithClock(now func() time.Time) IndexerOption {
	return func(ix *Indexer) {
		ix.now = now
	}
}

// NewIndexer creates an Indexer that fetches through fetcher.
func NewIndexer(fetcher Fetcher, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		fetcher: fetcher,
		logger:  slog.Default(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// AcquireIndices downloads and parses the master index of every elapsed
// (year, quarter) pair in [startYear, endYear] x quarters. An empty quarter
// list means all four. Quarters that have not begun yet are skipped and
// reported by key. Failed quarters queue for retry passes in force mode
// until none remain; when a pass ceiling is configured and reached, the
// acquired quarters are returned alongside a *StuckError naming the
// outstanding URLs.
func (ix *Indexer) AcquireIndices(ctx context.Context, startYear, endYear int, quarters []int) (acquired []*model.QuarterIndex, skipped []string, err error) {
	type quarterRef struct {
		year, quarter int
		url           string
	}

	if len(quarters) == 0 {
		quarters = []int{1, 2, 3, 4}
	}

	var pending []quarterRef
	for year := startYear; year <= endYear; year++ {
		for _, quarter := range quarters {
			if ix.isFuture(year, quarter) {
				key := model.QuarterIndex{Year: year, Quarter: quarter}.Key()
				ix.logger.Debug("skipping quarter that has not elapsed", "quarter", key)
				skipped = append(skipped, key)
				continue
			}

			url := fmt.Sprintf(fullIndexURLFormat, year, quarter)
			ix.logger.Info("downloading index", "url", url)

			qi, ferr := ix.fetchQuarter(ctx, year, quarter, url, false)
			if ferr != nil {
				if ctx.Err() != nil {
					return acquired, skipped, ctx.Err()
				}
				ix.logger.Warn("index download failed, queued for retry", "url", url, "error", ferr)
				pending = append(pending, quarterRef{year, quarter, url})
				continue
			}
			acquired = append(acquired, qi)
		}
	}

	// Retry passes. No inter-pass delay: the client's rate limiter
	// already paces requests.
	pass := 0
	for len(pending) > 0 {
		if ctx.Err() != nil {
			return acquired, skipped, ctx.Err()
		}
		if ix.maxRetryPasses > 0 && pass >= ix.maxRetryPasses {
			outstanding := make([]string, 0, len(pending))
			for _, ref := range pending {
				outstanding = append(outstanding, ref.url)
			}
			return acquired, skipped, &StuckError{
				Stage:       "index acquisition",
				Passes:      pass,
				Outstanding: outstanding,
			}
		}
		pass++
		ix.logger.Info("retrying failed indices", "count", len(pending), "pass", pass)

		var still []quarterRef
		for _, ref := range pending {
			qi, ferr := ix.fetchQuarter(ctx, ref.year, ref.quarter, ref.url, true)
			if ferr != nil {
				if ctx.Err() != nil {
					return acquired, skipped, ctx.Err()
				}
				still = append(still, ref)
				continue
			}
			acquired = append(acquired, qi)
		}
		pending = still
	}

	return acquired, skipped, nil
}

// isFuture reports whether the quarter has not begun as of the clock.
func (ix *Indexer) isFuture(year, quarter int) bool {
	now := ix.now()
	if year > now.Year() {
		return true
	}
	currentQuarter := (int(now.Month()) + 2) / 3
	return year == now.Year() && quarter > currentQuarter
}

// fetchQuarter downloads one master.zip and parses it into a QuarterIndex.
func (ix *Indexer) fetchQuarter(ctx context.Context, year, quarter int, url string, force bool) (*model.QuarterIndex, error) {
	var data []byte
	var err error
	if force {
		data, err = ix.fetcher.FetchForce(ctx, url)
	} else {
		data, err = ix.fetcher.Fetch(ctx, url)
	}
	if err != nil {
		return nil, err
	}

	lines, err := ix.parseMasterZip(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	return &model.QuarterIndex{Year: year, Quarter: quarter, Lines: lines}, nil
}

// parseMasterZip unpacks master.zip and returns the data lines of its
// master.idx member: the 11 header lines are dropped, the rest is decoded
// from Latin-1 and shape-checked. Rows without the expected delimiter count
// are skipped with a debug log.
func (ix *Indexer) parseMasterZip(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	member, err := zr.Open(masterIndexMember)
	if err != nil {
		return nil, fmt.Errorf("open %s member: %w", masterIndexMember, err)
	}
	defer member.Close()

	// The index is Latin-1: company names carry accented bytes that are
	// not valid UTF-8.
	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(member))

	var lines []string
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= headerLineCount {
			continue
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Count(line, "|") != indexFieldCount-1 {
			ix.logger.Debug("skipping malformed index row", "line", lineNo, "row", line)
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", masterIndexMember, err)
	}

	return lines, nil
}

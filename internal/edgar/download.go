package edgar

import (
	"context"
	"log/slog"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
	"github.com/ChenghaoMou/edgar-crawler/internal/store"
)

// Downloader resolves exhibit document bodies and persists complete batches.
type Downloader struct {
	fetcher        Fetcher
	batches        store.BatchStore
	logger         *slog.Logger
	maxRetryPasses int
	skipExisting   bool
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithDownloadLogger sets the logger used for download progress.
func WithDownloadLogger(logger *slog.Logger) DownloaderOption {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// WithDownloadRetryPasses bounds the retry loop for failed documents.
// Zero retries forever.
func WithDownloadRetryPasses(n int) DownloaderOption {
	return func(d *Downloader) {
		d.maxRetryPasses = n
	}
}

// WithSkipExisting controls whether already-stored batches are reused.
// On by default; turning it off re-downloads and replaces stored batches.
func WithSkipExisting(skip bool) DownloaderOption {
	return func(d *Downloader) {
		d.skipExisting = skip
	}
}

// NewDownloader creates a Downloader that persists batches to batches.
func NewDownloader(fetcher Fetcher, batches store.BatchStore, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		fetcher:      fetcher,
		batches:      batches,
		logger:       slog.Default(),
		skipExisting: true,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Download resolves every exhibit body in the batch, then writes the batch
// to the store in a single atomic step. When skip-existing is on and the
// page key is already stored, the stored batch is returned instead and no
// network call is made; the bool result reports that reuse.
//
// Failed documents queue for retry passes in force mode until none remain.
// A configured pass ceiling turns an undrained queue into a *StuckError,
// and nothing is written: partial batches never reach the store.
func (d *Downloader) Download(ctx context.Context, batch *model.Batch) (*model.Batch, bool, error) {
	if len(batch.Exhibits) == 0 {
		return batch, false, nil
	}

	if d.skipExisting {
		exists, err := d.batches.Exists(ctx, batch.PageKey)
		if err != nil {
			return nil, false, err
		}
		if exists {
			stored, err := d.batches.ReadBatch(ctx, batch.PageKey)
			if err != nil {
				return nil, false, err
			}
			d.logger.Debug("reusing stored batch", "page_key", batch.PageKey, "exhibits", len(stored.Exhibits))
			return stored, true, nil
		}
	}

	// First pass answers from the cache where possible.
	var pending []*model.Exhibit
	for _, ex := range batch.Exhibits {
		data, err := d.fetcher.Fetch(ctx, ex.DocumentURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, ctx.Err()
			}
			d.logger.Debug("document fetch failed, queued for retry", "url", ex.DocumentURL, "error", err)
			pending = append(pending, ex)
			continue
		}
		ex.Content = data
	}

	pass := 0
	for len(pending) > 0 {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		if d.maxRetryPasses > 0 && pass >= d.maxRetryPasses {
			outstanding := make([]string, 0, len(pending))
			for _, ex := range pending {
				outstanding = append(outstanding, ex.DocumentURL)
			}
			return nil, false, &StuckError{
				Stage:       "exhibit download",
				Passes:      pass,
				Outstanding: outstanding,
			}
		}
		pass++
		d.logger.Info("retrying exhibits", "count", len(pending), "pass", pass, "page_key", batch.PageKey)

		var still []*model.Exhibit
		for _, ex := range pending {
			data, err := d.fetcher.FetchForce(ctx, ex.DocumentURL)
			if err != nil {
				if ctx.Err() != nil {
					return nil, false, ctx.Err()
				}
				still = append(still, ex)
				continue
			}
			ex.Content = data
		}
		pending = still
	}

	if err := d.batches.WriteBatch(ctx, batch.PageKey, batch); err != nil {
		return nil, false, err
	}
	return batch, false, nil
}

package store

import (
	"context"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

// BatchStore persists exhibit batches keyed by their page key.
// Implementations must make WriteBatch all-or-nothing: a key that Exists
// always reads back as a complete batch, never a partial one.
type BatchStore interface {
	// Exists reports whether a batch is already stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// ReadBatch loads the batch stored under key.
	ReadBatch(ctx context.Context, key string) (*model.Batch, error)

	// WriteBatch stores the batch under key, replacing any previous value.
	WriteBatch(ctx context.Context, key string, batch *model.Batch) error
}

// BlobStore writes standalone artifacts, such as the crawl summary report,
// and returns the location written to.
type BlobStore interface {
	PutObject(ctx context.Context, name string, data []byte) (string, error)
}

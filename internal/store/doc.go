// Package store persists crawl outputs.
//
// The BatchStore and BlobStore interfaces describe the two output shapes:
// per-page exhibit batches (JSONL, one record per exhibit, document bodies
// zlib-compressed and base64-encoded by the JSON layer) and standalone
// artifacts such as the crawl summary report.
//
// LocalStore is the local-disk implementation. Its one structural promise
// is that files appear atomically: readers, and the skip-existing check in
// particular, never observe a half-written batch.
package store

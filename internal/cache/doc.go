// Package cache provides the SQLite-backed fetch cache for edgar-crawler.
//
// This package implements the Cache, which stores:
//   - Successful fetch results keyed by a canonical call fingerprint
//   - A blake3 checksum per entry, verified on every read
//   - The operation name per entry, for cache statistics
//
// Failed fetches are never stored. An absent entry always means "not
// fetched successfully yet", which is what lets interrupted crawls resume
// without re-downloading completed work.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of a
// file-per-entry layout because:
// 1. No external dependencies - the cache is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. A quarterly crawl produces tens of thousands of small entries,
//    a shape SQLite handles far better than a directory tree
// 4. WAL mode provides good concurrent read performance
package cache

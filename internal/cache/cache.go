package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrCorrupted is returned when a cached value fails its checksum check.
// A mismatch means the database file was damaged outside this process;
// the safe response is to purge and re-crawl, not to silently re-fetch.
var ErrCorrupted = errors.New("cache entry corrupted: checksum mismatch")

// ComputeFunc produces the value for a cache miss. It is only invoked when
// the cache has no entry (Do) or when a forced recompute is requested
// (DoForce). Returning an error leaves the cache untouched.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Cache is the content-addressable fetch cache backed by SQLite.
// Successful fetch results are stored under their call fingerprint so
// repeated runs answer from disk instead of the network. Failures are never
// persisted: an absent entry always means "not fetched successfully yet".
//
// Design decision: We use a single database file rather than one file per
// entry because a quarterly crawl produces tens of thousands of small
// entries, and SQLite handles that shape much better than a directory tree.
type Cache struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Cache behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default cache options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the fetch cache in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dataDir string, opts Options) (*Cache, error) {
	dbPath := filepath.Join(dataDir, "cache.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cache not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dataDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but serializing through one connection keeps the worker pool safe
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	c := &Cache{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Path returns the location of the cache database file.
func (c *Cache) Path() string {
	return c.dbPath
}

// createTables creates the cache schema if it doesn't exist.
func (c *Cache) createTables() error {
	schema := `
	-- Fetch cache stores successful fetch results keyed by call fingerprint
	CREATE TABLE IF NOT EXISTS fetch_cache (
		fingerprint TEXT PRIMARY KEY,
		op TEXT NOT NULL,
		value BLOB NOT NULL,
		checksum TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_fetch_cache_op ON fetch_cache(op);
	CREATE INDEX IF NOT EXISTS idx_fetch_cache_created ON fetch_cache(created_at);
	`

	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// Do answers the call from the cache when possible. On a hit the cached
// value is returned and compute never runs; on a miss compute runs and its
// result is stored before being returned. The hit flag tells callers
// whether the network was touched.
//
// Errors from compute are returned as-is and nothing is stored, so a
// failed fetch stays retryable forever.
func (c *Cache) Do(ctx context.Context, call Call, compute ComputeFunc) ([]byte, bool, error) {
	fp := call.Fingerprint()

	value, ok, err := c.get(ctx, fp)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return value, true, nil
	}

	value, err = compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := c.put(ctx, fp, call.Op, value); err != nil {
		return nil, false, err
	}
	return value, false, nil
}

// DoForce always runs compute and overwrites the entry on success.
// This is the recompute mode used by the retry passes: the cached value (if
// any) is suspect or absent, so go to the network again. On failure the
// existing entry is left exactly as it was.
func (c *Cache) DoForce(ctx context.Context, call Call, compute ComputeFunc) ([]byte, error) {
	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.put(ctx, call.Fingerprint(), call.Op, value); err != nil {
		return nil, err
	}
	return value, nil
}

// Contains reports whether the call already has a cached value.
func (c *Cache) Contains(ctx context.Context, call Call) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM fetch_cache WHERE fingerprint = ?`, call.Fingerprint(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check cache entry: %w", err)
	}
	return true, nil
}

// get retrieves and verifies one entry.
func (c *Cache) get(ctx context.Context, fingerprint string) ([]byte, bool, error) {
	var value []byte
	var checksum string

	err := c.db.QueryRowContext(ctx,
		`SELECT value, checksum FROM fetch_cache WHERE fingerprint = ?`, fingerprint,
	).Scan(&value, &checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if sumHex(value) != checksum {
		return nil, false, fmt.Errorf("%w: fingerprint %s", ErrCorrupted, fingerprint)
	}
	return value, true, nil
}

// put inserts or overwrites one entry.
// Uses UPSERT so forced recomputes replace the previous value atomically.
func (c *Cache) put(ctx context.Context, fingerprint, op string, value []byte) error {
	query := `
	INSERT INTO fetch_cache (fingerprint, op, value, checksum)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(fingerprint) DO UPDATE SET
		op = excluded.op,
		value = excluded.value,
		checksum = excluded.checksum,
		created_at = CURRENT_TIMESTAMP
	`

	_, err := c.db.ExecContext(ctx, query, fingerprint, op, value, sumHex(value))
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// sumHex returns the blake3 checksum of value as a hex string.
// blake3 is the integrity hash; the md5 fingerprint only addresses entries.
func sumHex(value []byte) string {
	sum := blake3.Sum256(value)
	return hex.EncodeToString(sum[:])
}

// Stats summarizes the cache contents for the cache subcommand.
type Stats struct {
	// Entries is the total number of cached values.
	Entries int64

	// TotalBytes is the sum of all cached value sizes.
	TotalBytes int64

	// ByOp maps operation names to their entry counts.
	ByOp map[string]int64
}

// Stats returns summary statistics about the cache contents.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByOp: make(map[string]int64)}

	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(value)), 0) FROM fetch_cache`,
	).Scan(&stats.Entries, &stats.TotalBytes)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read cache stats: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT op, COUNT(*) FROM fetch_cache GROUP BY op ORDER BY op`,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read per-op stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var op string
		var count int64
		if err := rows.Scan(&op, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan per-op stats: %w", err)
		}
		stats.ByOp[op] = count
	}

	return stats, rows.Err()
}

// Purge removes every cache entry and returns how many were deleted.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM fetch_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return result.RowsAffected()
}

package main

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ChenghaoMou/edgar-crawler/internal/cache"
	"github.com/ChenghaoMou/edgar-crawler/internal/config"
)

// NewCacheCmd creates the cache command group.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or purge the fetch cache",
		Long: `Cache manages the local fetch cache that backs crawl runs.

Every EDGAR response is cached in a SQLite database so re-runs of the
same window never hit the network twice. Use stats to see what the
cache holds and purge to force the next run to re-fetch everything.

Examples:
  # Show cache statistics
  edgar-crawler cache stats

  # Empty the cache
  edgar-crawler cache purge

  # Inspect a cache in a non-default location
  edgar-crawler cache stats --data-dir /data/edgar`,
	}

	cmd.PersistentFlags().String("data-dir", config.XDGDataDir(),
		"Directory the fetch cache database lives in")

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCachePurgeCmd())

	return cmd
}

// newCacheStatsCmd creates the cache stats subcommand.
func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show fetch cache statistics",
		Args:  cobra.NoArgs,
		RunE:  runCacheStatsCmd,
	}
}

// newCachePurgeCmd creates the cache purge subcommand.
func newCachePurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every cached fetch",
		Args:  cobra.NoArgs,
		RunE:  runCachePurgeCmd,
	}
}

// openExistingCache opens the cache without creating it. Inspecting a
// machine that never crawled fails with a clear message instead of
// leaving an empty database behind.
func openExistingCache(cmd *cobra.Command) (*cache.Cache, error) {
	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return nil, err
	}

	c, err := cache.Open(dataDir, cache.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return nil, fmt.Errorf("no fetch cache in %s (run a crawl first): %w", dataDir, err)
	}
	return c, nil
}

// runCacheStatsCmd executes the cache stats command.
func runCacheStatsCmd(cmd *cobra.Command, _ []string) error {
	c, err := openExistingCache(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache:   %s\n", c.Path())
	fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(out, "Size:    %s\n", humanize.IBytes(uint64(stats.TotalBytes))) //nolint:gosec // sizes are non-negative

	if len(stats.ByOp) > 0 {
		fmt.Fprintln(out, "\nEntries by operation:")

		ops := make([]string, 0, len(stats.ByOp))
		for op := range stats.ByOp {
			ops = append(ops, op)
		}
		sort.Strings(ops)

		for _, op := range ops {
			fmt.Fprintf(out, "  %-16s %d\n", op, stats.ByOp[op])
		}
	}

	return nil
}

// runCachePurgeCmd executes the cache purge command.
func runCachePurgeCmd(cmd *cobra.Command, _ []string) error {
	c, err := openExistingCache(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	deleted, err := c.Purge(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached fetches\n", deleted)
	return nil
}

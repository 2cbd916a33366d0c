// Package main provides the entry point for the edgar-crawler CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for edgar-crawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edgar-crawler",
		Short: "Bulk downloader for SEC EDGAR filing exhibits",
		Long: `edgar-crawler downloads SEC EDGAR quarterly master indexes, filters
filings by form type, and collects exhibit documents (EX-10 material
contracts by default) from each filing's index page.

Fetches are cached locally and finished pages are skipped on re-runs,
so an interrupted crawl resumes where it left off.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ChenghaoMou/edgar-crawler/internal/config"
)

//go:embed templates/edgar-crawler.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new edgar-crawler configuration file",
		Long: `Initialize creates a new .edgar-crawler.yaml configuration file in the
current directory.

The generated file includes:
- A place to set your SEC-required User-Agent contact information
- Default settings for the crawl window and type filters
- Commented examples for rate limiting and storage locations

Examples:
  # Create .edgar-crawler.yaml in current directory
  edgar-crawler init

  # Create config file at a specific path
  edgar-crawler init -o myconfig.yaml

  # Force overwrite existing file
  edgar-crawler init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/edgar-crawler.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit this file before your first crawl:")
	fmt.Println("  - Set user_agent to your name and email (SEC requirement)")
	fmt.Println("  - Adjust the crawl window and type filters")
	fmt.Println("  - Point output_dir and data_dir at storage with room to grow")

	return nil
}

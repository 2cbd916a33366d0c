// Package config provides configuration structures and utilities for the
// crawler. It defines the main configuration options for the crawl range,
// type filters, request politeness, storage locations, and report generation
// preferences.
package config

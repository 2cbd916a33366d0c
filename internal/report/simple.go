package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to say are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	// Header
	w.writeHeader(&sb, report)

	// Index acquisition
	w.writeAcquisition(&sb, report)

	// Filings
	w.writeFilings(&sb, report)

	// Exhibit collection
	w.writeCollection(&sb, report)

	// Stuck items
	w.writeStuck(&sb, report)

	// Footer
	w.writeFooter(&sb)

	// Write to output
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        EDGAR CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Crawl Window:   %d-%d\n", report.StartYear, report.EndYear))
	sb.WriteString(fmt.Sprintf("Filing Types:   %s\n", joinOrDash(report.FilingTypes)))
	sb.WriteString(fmt.Sprintf("Exhibit Types:  %s\n", joinOrDash(report.ExhibitTypes)))
	sb.WriteString(fmt.Sprintf("Started:        %s\n", report.DateStarted.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", report.Duration().Round(time.Millisecond)))

	if report.TimedOut {
		sb.WriteString("Status:         TIMED OUT (partial results)\n")
	} else if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", report.ErrorMessage))
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

// writeAcquisition writes the index acquisition section.
func (w *SimpleWriter) writeAcquisition(sb *strings.Builder, report *model.CrawlReport) {
	writeSectionHeader(sb, "INDEX ACQUISITION")

	sb.WriteString(fmt.Sprintf("  Quarters acquired: %d\n", len(report.QuarterKeys)))
	sb.WriteString(fmt.Sprintf("  Quarters skipped:  %d (not yet elapsed)\n", len(report.SkippedQuarters)))
	sb.WriteString(fmt.Sprintf("  Index lines:       %d\n", report.IndexLineCount))

	if w.verbose && len(report.QuarterKeys) > 0 {
		sb.WriteString(fmt.Sprintf("  Acquired:          %s\n", strings.Join(report.QuarterKeys, ", ")))
	}
	if w.verbose && len(report.SkippedQuarters) > 0 {
		sb.WriteString(fmt.Sprintf("  Skipped:           %s\n", strings.Join(report.SkippedQuarters, ", ")))
	}
	sb.WriteString("\n")
}

// writeFilings writes the filter result section.
func (w *SimpleWriter) writeFilings(sb *strings.Builder, report *model.CrawlReport) {
	writeSectionHeader(sb, "FILINGS")

	sb.WriteString(fmt.Sprintf("  Matched filings:   %d\n", report.FilingCount))
	sb.WriteString("\n")
}

// writeCollection writes the exhibit collection section.
func (w *SimpleWriter) writeCollection(sb *strings.Builder, report *model.CrawlReport) {
	writeSectionHeader(sb, "EXHIBIT COLLECTION")

	sb.WriteString(fmt.Sprintf("  Pages processed:        %d\n", report.PagesProcessed))
	sb.WriteString(fmt.Sprintf("  Pages reused:           %d\n", report.PagesSkipped))
	sb.WriteString(fmt.Sprintf("  Pages without exhibits: %d\n", report.PagesWithoutExhibits))
	sb.WriteString(fmt.Sprintf("  Exhibits collected:     %d\n", report.ExhibitCount))
	sb.WriteString("\n")
}

// writeStuck writes the stuck items section. A clean run hides it unless
// showEmpty is set.
func (w *SimpleWriter) writeStuck(sb *strings.Builder, report *model.CrawlReport) {
	if len(report.Stuck) == 0 && !w.showEmpty {
		return
	}

	writeSectionHeader(sb, "STUCK ITEMS")

	if len(report.Stuck) == 0 {
		sb.WriteString("  None\n")
	} else {
		for _, unit := range report.Stuck {
			sb.WriteString(fmt.Sprintf("  ! %s\n", unit))
		}
		sb.WriteString(fmt.Sprintf("\n  Gave up after %d retry passes. Re-run to continue.\n", report.RetryPasses))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by edgar-crawler\n")
	sb.WriteString("https://github.com/ChenghaoMou/edgar-crawler\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeSectionHeader writes a dashed section divider with its title.
func writeSectionHeader(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// joinOrDash joins a list for display, or returns a dash when empty.
func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

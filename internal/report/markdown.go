package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	// Header
	w.writeHeader(md, report)

	// Summary
	w.writeSummary(md, report)

	// Quarter indexes
	w.writeQuarters(md, report)

	// Stuck items
	w.writeStuck(md, report)

	// Footer
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("EDGAR Crawl Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Crawl Window", fmt.Sprintf("%d-%d", report.StartYear, report.EndYear)},
			{"Filing Types", "`" + joinOrDash(report.FilingTypes) + "`"},
			{"Exhibit Types", "`" + joinOrDash(report.ExhibitTypes) + "`"},
			{"Started", report.DateStarted.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.CrawlReport) string {
	if report.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

// writeSummary writes the crawl summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Crawl Summary")
	md.PlainText("")

	// Summary table
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Quarters acquired", strconv.Itoa(len(report.QuarterKeys))},
			{"Quarters skipped", strconv.Itoa(len(report.SkippedQuarters))},
			{"Index lines", strconv.Itoa(report.IndexLineCount)},
			{"Matched filings", strconv.Itoa(report.FilingCount)},
			{"Pages processed", strconv.Itoa(report.PagesProcessed)},
			{"Pages reused", strconv.Itoa(report.PagesSkipped)},
			{"Pages without exhibits", strconv.Itoa(report.PagesWithoutExhibits)},
			{"**Exhibits collected**", "**" + strconv.Itoa(report.ExhibitCount) + "**"},
		},
	})
	md.PlainText("")

	// Add pie chart if any pages were handled
	if report.PagesProcessed+report.PagesSkipped > 0 {
		w.writePieChart(md, report)
	}

	// Add alert based on crawl outcome
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart for page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)

	collected := report.PagesProcessed - report.PagesWithoutExhibits
	if collected > 0 {
		chart.LabelAndIntValue("Collected", uint64(collected))
	}
	if report.PagesWithoutExhibits > 0 {
		chart.LabelAndIntValue("No Matching Exhibits", uint64(report.PagesWithoutExhibits))
	}
	if report.PagesSkipped > 0 {
		chart.LabelAndIntValue("Reused From Store", uint64(report.PagesSkipped))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the crawl outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.CrawlReport) {
	switch {
	case report.TimedOut:
		md.Caution("The crawl timed out before finishing. Counts reflect partial progress.")
	case report.ErrorMessage != "":
		md.Cautionf("The crawl stopped with an error: %s", report.ErrorMessage)
	case len(report.Stuck) > 0:
		md.Warningf(
			"%d item(s) remained stuck after %d retry passes. Re-running the crawl resumes them.",
			len(report.Stuck), report.RetryPasses,
		)
	case report.ExhibitCount == 0 && report.PagesProcessed > 0:
		md.Note("No exhibits matched the requested exhibit types.")
	default:
		md.Tip("Crawl completed without failures.")
	}
	md.PlainText("")
}

// writeQuarters writes the acquired quarter index section.
func (w *MarkdownWriter) writeQuarters(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Quarter Indexes")
	md.PlainText("")

	if len(report.QuarterKeys) == 0 {
		md.PlainText("No quarter indexes acquired.")
		md.PlainText("")
		return
	}

	md.BulletList(report.QuarterKeys...)
	md.PlainText("")

	if len(report.SkippedQuarters) > 0 {
		md.PlainText("Skipped (not yet elapsed):")
		md.PlainText("")
		md.BulletList(report.SkippedQuarters...)
		md.PlainText("")
	}
}

// writeStuck writes the stuck items section.
func (w *MarkdownWriter) writeStuck(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Stuck Items")
	md.PlainText("")

	if len(report.Stuck) == 0 {
		md.PlainText("No stuck items.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Stuck))
	for i, unit := range report.Stuck {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			"`" + truncateString(unit, 80) + "`",
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Document"},
		Rows:   rows,
	})
	md.PlainText("")

	md.PlainTextf("Gave up after %d retry pass(es). Re-run the crawl to continue.", report.RetryPasses)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [edgar-crawler](https://github.com/ChenghaoMou/edgar-crawler)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

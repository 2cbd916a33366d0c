package edgar

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

// documentTableSelector identifies the exhibit table on a filing index
// page. The summary attribute must match exactly: the same page carries a
// second tableFile ("Data Files") that lists XBRL artifacts, not exhibits.
const documentTableSelector = `table.tableFile[summary='Document Format Files']`

// documentTableColumns is the cell count of a document row:
// sequence, description, document link, type, size.
const documentTableColumns = 5

// Locator finds exhibit documents on filing index pages.
//
// Design decision: We parse with golang.org/x/net/html and query the node
// tree through goquery because:
//  1. EDGAR pages are machine-generated but still benefit from a real
//     HTML parser over regex scraping
//  2. The exhibit table is most precisely named by a CSS attribute
//     selector, which goquery evaluates directly
//  3. Both handle the malformed markup of older filings gracefully
type Locator struct {
	fetcher Fetcher
	logger  *slog.Logger

	// exhibitTypes are the uppercased base tags to match, e.g. "EX-10".
	exhibitTypes []string
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithLocatorLogger sets the logger used for per-page diagnostics.
func WithLocatorLogger(logger *slog.Logger) LocatorOption {
	return func(l *Locator) {
		l.logger = logger
	}
}

// NewLocator creates a Locator matching the given exhibit type families.
func NewLocator(fetcher Fetcher, exhibitTypes []string, opts ...LocatorOption) *Locator {
	l := &Locator{
		fetcher: fetcher,
		logger:  slog.Default(),
	}
	for _, t := range exhibitTypes {
		l.exhibitTypes = append(l.exhibitTypes, strings.ToUpper(strings.TrimSpace(t)))
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Locate fetches the filing's index page and extracts its exhibit rows into
// a batch. A page without a document table yields an empty batch, not an
// error; the same page always yields the same page key.
func (l *Locator) Locate(ctx context.Context, filing *model.Filing) (*model.Batch, error) {
	data, err := l.fetcher.Fetch(ctx, filing.IndexHTMLURL)
	if err != nil {
		return nil, err
	}
	return l.parsePage(filing, data)
}

// parsePage extracts the exhibit batch from one filing index page.
func (l *Locator) parsePage(filing *model.Filing, data []byte) (*model.Batch, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filing.IndexHTMLURL, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	batch := &model.Batch{
		PageKey:      model.PageKey(filing.IndexHTMLURL),
		IndexHTMLURL: filing.IndexHTMLURL,
	}

	table := doc.Find(documentTableSelector).First()
	if table.Length() == 0 {
		l.logger.Debug("no document table on page", "url", filing.IndexHTMLURL)
		return batch, nil
	}

	batch.Metadata = parseHeaderInfo(doc)

	// Prefer the page header's filing date; older pages without a header
	// block fall back to the index row's date.
	filingDate := batch.Metadata.FilingDate
	if filingDate == "" {
		filingDate = filing.FilingDate
	}

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // column header row
		}

		cells := row.Find("td")
		if cells.Length() != documentTableColumns {
			l.logger.Debug("skipping short document row", "url", filing.IndexHTMLURL, "cells", cells.Length())
			return
		}

		docType := strings.TrimSpace(cells.Eq(3).Text())
		if !l.matchesExhibitType(docType) {
			return
		}

		anchor := cells.Eq(2).Find("a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			// Some rows carry a bare filename with no link.
			return
		}

		batch.Exhibits = append(batch.Exhibits, &model.Exhibit{
			IndexHTMLURL: filing.IndexHTMLURL,
			Sequence:     strings.TrimSpace(cells.Eq(0).Text()),
			Description:  strings.TrimSpace(cells.Eq(1).Text()),
			DocumentURL:  siteBaseURL + href,
			DocumentType: docType,
			SizeText:     strings.TrimSpace(cells.Eq(4).Text()),
			Filename:     strings.TrimSpace(anchor.Text()),
			CIK:          filing.CIK,
			CompanyName:  filing.CompanyName,
			FormType:     filing.FormType,
			FilingDate:   filingDate,
			ReportDate:   batch.Metadata.ReportDate,
		})
	})

	return batch, nil
}

// matchesExhibitType reports whether docType belongs to one of the
// configured exhibit families: equal to a base tag, or a base tag followed
// by a "." subtype. "EX-10.1" matches family "EX-10"; "EX-101" does not.
func (l *Locator) matchesExhibitType(docType string) bool {
	upper := strings.ToUpper(docType)
	for _, base := range l.exhibitTypes {
		if upper == base || strings.HasPrefix(upper, base+".") {
			return true
		}
	}
	return false
}

// parseHeaderInfo pulls the filing dates out of the page header, which
// EDGAR lays out as label/value div pairs (infoHead followed by info).
func parseHeaderInfo(doc *goquery.Document) model.FilingMetadata {
	var meta model.FilingMetadata
	doc.Find("div.infoHead").Each(func(_ int, s *goquery.Selection) {
		value := strings.TrimSpace(s.NextFiltered("div.info").Text())
		switch strings.TrimSpace(s.Text()) {
		case "Filing Date":
			meta.FilingDate = value
		case "Period of Report":
			meta.ReportDate = value
		}
	})
	return meta
}

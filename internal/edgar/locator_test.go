package edgar

import (
	"context"
	"testing"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

// filingPage is a trimmed-down EDGAR filing index page. It keeps the parts
// the locator cares about: the header info pairs, the Document Format Files
// table, and the Data Files table that must be ignored even though its rows
// would otherwise match.
const filingPage = `<!DOCTYPE html>
<html>
<head><title>EDGAR Filing Documents for 0000320193-23-000077</title></head>
<body>
<div id="formDiv">
  <div class="formContent">
    <div class="formGrouping">
      <div class="infoHead">Filing Date</div>
      <div class="info">2023-08-04</div>
      <div class="infoHead">Accepted</div>
      <div class="info">2023-08-03 18:04:43</div>
    </div>
    <div class="formGrouping">
      <div class="infoHead">Period of Report</div>
      <div class="info">2023-07-01</div>
    </div>
  </div>
  <table class="tableFile" summary="Document Format Files">
    <tr>
      <th scope="col">Seq</th>
      <th scope="col">Description</th>
      <th scope="col">Document</th>
      <th scope="col">Type</th>
      <th scope="col">Size</th>
    </tr>
    <tr>
      <td scope="row">1</td>
      <td scope="row">10-Q</td>
      <td scope="row"><a href="/Archives/edgar/data/320193/000032019323000077/aapl-20230701.htm">aapl-20230701.htm</a></td>
      <td scope="row">10-Q</td>
      <td scope="row">741650</td>
    </tr>
    <tr class="blueRow">
      <td scope="row">2</td>
      <td scope="row">EMPLOYEE STOCK PLAN AGREEMENT</td>
      <td scope="row"><a href="/Archives/edgar/data/320193/000032019323000077/a10-qexhibit101.htm">a10-qexhibit101.htm</a></td>
      <td scope="row">EX-10.1</td>
      <td scope="row">25844</td>
    </tr>
    <tr>
      <td scope="row">3</td>
      <td scope="row">MATERIAL CONTRACT</td>
      <td scope="row"><a href="/Archives/edgar/data/320193/000032019323000077/a10-qexhibit10.htm">a10-qexhibit10.htm</a></td>
      <td scope="row">EX-10</td>
      <td scope="row">9120</td>
    </tr>
    <tr class="blueRow">
      <td scope="row">4</td>
      <td scope="row">UNLINKED EXHIBIT</td>
      <td scope="row">orphan-exhibit.txt</td>
      <td scope="row">EX-10.22</td>
      <td scope="row">1201</td>
    </tr>
    <tr>
      <td scope="row">5</td>
      <td scope="row">XBRL INSTANCE DOCUMENT</td>
      <td scope="row"><a href="/Archives/edgar/data/320193/000032019323000077/aapl-20230701.xml">aapl-20230701.xml</a></td>
      <td scope="row">EX-101.INS</td>
      <td scope="row">3110</td>
    </tr>
    <tr class="blueRow">
      <td scope="row">&nbsp;</td>
      <td scope="row">Complete submission text file</td>
      <td scope="row"><a href="/Archives/edgar/data/320193/000032019323000077/0000320193-23-000077.txt">0000320193-23-000077.txt</a></td>
      <td scope="row">&nbsp;</td>
      <td scope="row">8033779</td>
    </tr>
  </table>
  <table class="tableFile" summary="Data Files">
    <tr>
      <th scope="col">Seq</th>
      <th scope="col">Description</th>
      <th scope="col">Document</th>
      <th scope="col">Type</th>
      <th scope="col">Size</th>
    </tr>
    <tr>
      <td scope="row">9</td>
      <td scope="row">DECOY ROW IN WRONG TABLE</td>
      <td scope="row"><a href="/Archives/edgar/data/320193/000032019323000077/decoy.htm">decoy.htm</a></td>
      <td scope="row">EX-10.77</td>
      <td scope="row">512</td>
    </tr>
  </table>
</div>
</body>
</html>`

// bareFilingPage has a document table but no header info block.
const bareFilingPage = `<html><body>
<table class="tableFile" summary="Document Format Files">
  <tr><th>Seq</th><th>Description</th><th>Document</th><th>Type</th><th>Size</th></tr>
  <tr>
    <td>1</td>
    <td>LEASE AGREEMENT</td>
    <td><a href="/Archives/edgar/data/99/lease.htm">lease.htm</a></td>
    <td>EX-10.3</td>
    <td>4112</td>
  </tr>
</table>
</body></html>`

// testFiling returns the parent filing the fixture pages belong to.
func testFiling() *model.Filing {
	return &model.Filing{
		CIK:          "320193",
		CompanyName:  "Apple Inc.",
		FormType:     "10-Q",
		FilingDate:   "2023-08-04",
		IndexTextURL: "https://www.sec.gov/Archives/edgar/data/320193/0000320193-23-000077.txt",
		IndexHTMLURL: "https://www.sec.gov/Archives/edgar/data/320193/0000320193-23-000077-index.html",
	}
}

// TestLocate tests exhibit extraction from filing index pages.
func TestLocate(t *testing.T) {
	t.Parallel()

	t.Run("extracts matching exhibit rows", func(t *testing.T) {
		t.Parallel()

		filing := testFiling()
		stub := newStubFetcher()
		stub.bodies[filing.IndexHTMLURL] = []byte(filingPage)

		l := NewLocator(stub, []string{"EX-10"})
		batch, err := l.Locate(context.Background(), filing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if batch.PageKey != model.PageKey(filing.IndexHTMLURL) {
			t.Errorf("PageKey = %q, want %q", batch.PageKey, model.PageKey(filing.IndexHTMLURL))
		}
		if batch.IndexHTMLURL != filing.IndexHTMLURL {
			t.Errorf("IndexHTMLURL = %q", batch.IndexHTMLURL)
		}

		// EX-10.1 and EX-10 match; the unlinked EX-10.22 row, the 10-Q
		// row, the XBRL row and the decoy table must all be dropped.
		if len(batch.Exhibits) != 2 {
			t.Fatalf("expected 2 exhibits, got %d", len(batch.Exhibits))
		}

		first := batch.Exhibits[0]
		if first.Sequence != "2" {
			t.Errorf("Sequence = %q, want %q", first.Sequence, "2")
		}
		if first.Description != "EMPLOYEE STOCK PLAN AGREEMENT" {
			t.Errorf("Description = %q", first.Description)
		}
		wantURL := "https://www.sec.gov/Archives/edgar/data/320193/000032019323000077/a10-qexhibit101.htm"
		if first.DocumentURL != wantURL {
			t.Errorf("DocumentURL = %q, want %q", first.DocumentURL, wantURL)
		}
		if first.DocumentType != "EX-10.1" {
			t.Errorf("DocumentType = %q", first.DocumentType)
		}
		if first.SizeText != "25844" {
			t.Errorf("SizeText = %q", first.SizeText)
		}
		if first.Filename != "a10-qexhibit101.htm" {
			t.Errorf("Filename = %q", first.Filename)
		}
		if first.CIK != "320193" || first.CompanyName != "Apple Inc." || first.FormType != "10-Q" {
			t.Errorf("parent filing fields not carried: %+v", first)
		}

		second := batch.Exhibits[1]
		if second.DocumentType != "EX-10" {
			t.Errorf("second DocumentType = %q, want %q", second.DocumentType, "EX-10")
		}

		for _, ex := range batch.Exhibits {
			if ex.DocumentType == "EX-10.77" {
				t.Error("row from the Data Files table leaked into the batch")
			}
		}
	})

	t.Run("reads filing dates from the page header", func(t *testing.T) {
		t.Parallel()

		filing := testFiling()
		stub := newStubFetcher()
		stub.bodies[filing.IndexHTMLURL] = []byte(filingPage)

		l := NewLocator(stub, []string{"EX-10"})
		batch, err := l.Locate(context.Background(), filing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if batch.Metadata.FilingDate != "2023-08-04" {
			t.Errorf("Metadata.FilingDate = %q, want %q", batch.Metadata.FilingDate, "2023-08-04")
		}
		if batch.Metadata.ReportDate != "2023-07-01" {
			t.Errorf("Metadata.ReportDate = %q, want %q", batch.Metadata.ReportDate, "2023-07-01")
		}
		for _, ex := range batch.Exhibits {
			if ex.FilingDate != "2023-08-04" {
				t.Errorf("exhibit FilingDate = %q", ex.FilingDate)
			}
			if ex.ReportDate != "2023-07-01" {
				t.Errorf("exhibit ReportDate = %q", ex.ReportDate)
			}
		}
	})

	t.Run("falls back to the index date without a header block", func(t *testing.T) {
		t.Parallel()

		filing := testFiling()
		filing.FilingDate = "1999-11-30"
		stub := newStubFetcher()
		stub.bodies[filing.IndexHTMLURL] = []byte(bareFilingPage)

		l := NewLocator(stub, []string{"EX-10"})
		batch, err := l.Locate(context.Background(), filing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if batch.Metadata.FilingDate != "" || batch.Metadata.ReportDate != "" {
			t.Errorf("expected empty metadata, got %+v", batch.Metadata)
		}
		if len(batch.Exhibits) != 1 {
			t.Fatalf("expected 1 exhibit, got %d", len(batch.Exhibits))
		}
		if got := batch.Exhibits[0].FilingDate; got != "1999-11-30" {
			t.Errorf("exhibit FilingDate = %q, want index date", got)
		}
		if batch.Exhibits[0].ReportDate != "" {
			t.Errorf("exhibit ReportDate = %q, want empty", batch.Exhibits[0].ReportDate)
		}
	})

	t.Run("page without document table yields empty batch", func(t *testing.T) {
		t.Parallel()

		filing := testFiling()
		stub := newStubFetcher()
		stub.bodies[filing.IndexHTMLURL] = []byte(`<html><body><p>No documents here.</p></body></html>`)

		l := NewLocator(stub, []string{"EX-10"})
		batch, err := l.Locate(context.Background(), filing)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(batch.Exhibits) != 0 {
			t.Errorf("expected empty batch, got %d exhibits", len(batch.Exhibits))
		}
		if batch.PageKey != model.PageKey(filing.IndexHTMLURL) {
			t.Error("empty batch must still carry the page key")
		}
	})

	t.Run("fetch errors propagate", func(t *testing.T) {
		t.Parallel()

		filing := testFiling()
		stub := newStubFetcher()

		l := NewLocator(stub, []string{"EX-10"})
		if _, err := l.Locate(context.Background(), filing); err == nil {
			t.Error("expected error when the page cannot be fetched")
		}
	})
}

// TestMatchesExhibitType tests the family predicate.
func TestMatchesExhibitType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		families []string
		docType  string
		want     bool
	}{
		{name: "base tag matches itself", families: []string{"EX-10"}, docType: "EX-10", want: true},
		{name: "dotted subtype matches", families: []string{"EX-10"}, docType: "EX-10.1", want: true},
		{name: "high subtype matches", families: []string{"EX-10"}, docType: "EX-10.99", want: true},
		{name: "longer tag is a different family", families: []string{"EX-10"}, docType: "EX-101", want: false},
		{name: "xbrl schema is a different family", families: []string{"EX-10"}, docType: "EX-101.SCH", want: false},
		{name: "other exhibit number", families: []string{"EX-10"}, docType: "EX-2", want: false},
		{name: "letter suffix without dot", families: []string{"EX-10"}, docType: "EX-10A", want: false},
		{name: "comparison is case-insensitive", families: []string{"EX-10"}, docType: "ex-10.5", want: true},
		{name: "lowercase family config", families: []string{"ex-10"}, docType: "EX-10.2", want: true},
		{name: "empty type never matches", families: []string{"EX-10"}, docType: "", want: false},
		{name: "second family matches", families: []string{"EX-10", "EX-21"}, docType: "EX-21.1", want: true},
		{name: "neither family matches", families: []string{"EX-10", "EX-21"}, docType: "EX-23.1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := NewLocator(nil, tt.families)
			if got := l.matchesExhibitType(tt.docType); got != tt.want {
				t.Errorf("matchesExhibitType(%q) with families %v = %v, want %v", tt.docType, tt.families, got, tt.want)
			}
		})
	}
}

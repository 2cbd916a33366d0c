package edgar

import (
	"testing"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

// TestFilterFilings tests form-type selection and URL derivation.
func TestFilterFilings(t *testing.T) {
	t.Parallel()

	defaultTypes := []string{"10-K", "10-Q", "8-K"}

	t.Run("keeps only allowed form types", func(t *testing.T) {
		t.Parallel()

		indices := []*model.QuarterIndex{
			{Year: 2023, Quarter: 1, Lines: []string{
				"320193|Apple Inc.|10-Q|2023-02-02|edgar/data/320193/0000320193-23-000006.txt",
				"1018724|AMAZON COM INC|8-K|2023-02-03|edgar/data/1018724/0001018724-23-000010.txt",
				"789019|MICROSOFT CORP|4|2023-02-06|edgar/data/789019/0001062993-23-002873.txt",
				"1067983|BERKSHIRE HATHAWAY INC|SC 13G|2023-02-14|edgar/data/1067983/0000950123-23-001952.txt",
				"320193|Apple Inc.|10-K|2022-10-28|edgar/data/320193/0000320193-22-000108.txt",
			}},
		}

		filings := FilterFilings(indices, defaultTypes)
		if len(filings) != 3 {
			t.Fatalf("expected 3 filings, got %d", len(filings))
		}
		for _, f := range filings {
			switch f.FormType {
			case "10-K", "10-Q", "8-K":
			default:
				t.Errorf("unexpected form type %q", f.FormType)
			}
		}
	})

	t.Run("amended forms are distinct types", func(t *testing.T) {
		t.Parallel()

		indices := []*model.QuarterIndex{
			{Year: 2023, Quarter: 1, Lines: []string{
				"320193|Apple Inc.|10-K/A|2023-03-01|edgar/data/320193/0000320193-23-000020.txt",
			}},
		}

		if filings := FilterFilings(indices, defaultTypes); len(filings) != 0 {
			t.Errorf("10-K/A should not match 10-K, got %d filings", len(filings))
		}
		if filings := FilterFilings(indices, []string{"10-K/A"}); len(filings) != 1 {
			t.Errorf("10-K/A should match itself, got %d filings", len(filings))
		}
	})

	t.Run("builds absolute archive urls", func(t *testing.T) {
		t.Parallel()

		indices := []*model.QuarterIndex{
			{Year: 2023, Quarter: 1, Lines: []string{
				"320193|Apple Inc.|10-Q|2023-02-02|edgar/data/320193/0000320193-23-000006.txt",
			}},
		}

		filings := FilterFilings(indices, defaultTypes)
		if len(filings) != 1 {
			t.Fatalf("expected 1 filing, got %d", len(filings))
		}

		f := filings[0]
		wantText := "https://www.sec.gov/Archives/edgar/data/320193/0000320193-23-000006.txt"
		wantHTML := "https://www.sec.gov/Archives/edgar/data/320193/0000320193-23-000006-index.html"
		if f.IndexTextURL != wantText {
			t.Errorf("IndexTextURL = %q, want %q", f.IndexTextURL, wantText)
		}
		if f.IndexHTMLURL != wantHTML {
			t.Errorf("IndexHTMLURL = %q, want %q", f.IndexHTMLURL, wantHTML)
		}
		if f.CIK != "320193" {
			t.Errorf("CIK = %q, want %q", f.CIK, "320193")
		}
		if f.CompanyName != "Apple Inc." {
			t.Errorf("CompanyName = %q", f.CompanyName)
		}
		if f.FilingDate != "2023-02-02" {
			t.Errorf("FilingDate = %q", f.FilingDate)
		}
	})

	t.Run("preserves quarter and row order", func(t *testing.T) {
		t.Parallel()

		indices := []*model.QuarterIndex{
			{Year: 2022, Quarter: 4, Lines: []string{
				"1|A CORP|10-K|2022-10-01|edgar/data/1/a.txt",
				"2|B CORP|10-K|2022-10-02|edgar/data/2/b.txt",
			}},
			{Year: 2023, Quarter: 1, Lines: []string{
				"3|C CORP|10-K|2023-01-03|edgar/data/3/c.txt",
			}},
		}

		filings := FilterFilings(indices, defaultTypes)
		if len(filings) != 3 {
			t.Fatalf("expected 3 filings, got %d", len(filings))
		}
		for i, wantCIK := range []string{"1", "2", "3"} {
			if filings[i].CIK != wantCIK {
				t.Errorf("filings[%d].CIK = %q, want %q", i, filings[i].CIK, wantCIK)
			}
		}
	})

	t.Run("skips rows with the wrong field count", func(t *testing.T) {
		t.Parallel()

		indices := []*model.QuarterIndex{
			{Year: 2023, Quarter: 1, Lines: []string{
				"only|four|fields|here",
				"320193|Apple Inc.|10-K|2022-10-28|edgar/data/320193/0000320193-22-000108.txt",
			}},
		}

		filings := FilterFilings(indices, defaultTypes)
		if len(filings) != 1 {
			t.Errorf("expected 1 filing, got %d", len(filings))
		}
	})

	t.Run("empty inputs yield no filings", func(t *testing.T) {
		t.Parallel()

		if filings := FilterFilings(nil, defaultTypes); len(filings) != 0 {
			t.Errorf("expected no filings for nil indices, got %d", len(filings))
		}
		indices := []*model.QuarterIndex{{Year: 2023, Quarter: 1}}
		if filings := FilterFilings(indices, defaultTypes); len(filings) != 0 {
			t.Errorf("expected no filings for empty quarter, got %d", len(filings))
		}
	})
}

// TestTextToHTMLIndexURL tests the suffix substitution.
func TestTextToHTMLIndexURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "txt suffix becomes index page",
			in:   "https://www.sec.gov/Archives/edgar/data/1/0000000001-23-000001.txt",
			want: "https://www.sec.gov/Archives/edgar/data/1/0000000001-23-000001-index.html",
		},
		{
			name: "unsuffixed url passes through",
			in:   "https://www.sec.gov/Archives/edgar/data/1/readme",
			want: "https://www.sec.gov/Archives/edgar/data/1/readme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := textToHTMLIndexURL(tt.in); got != tt.want {
				t.Errorf("textToHTMLIndexURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

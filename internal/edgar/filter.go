package edgar

import (
	"strings"

	"github.com/ChenghaoMou/edgar-crawler/internal/model"
)

// FilterFilings selects the master-index rows whose form type is in
// filingTypes (exact match) and resolves their archive URLs. Pure function:
// no I/O, output order follows quarter order then row order.
func FilterFilings(indices []*model.QuarterIndex, filingTypes []string) []*model.Filing {
	allowed := make(map[string]bool, len(filingTypes))
	for _, t := range filingTypes {
		allowed[t] = true
	}

	var filings []*model.Filing
	for _, qi := range indices {
		for _, line := range qi.Lines {
			fields := strings.Split(line, "|")
			if len(fields) != indexFieldCount {
				continue
			}
			if !allowed[fields[2]] {
				continue
			}

			textURL := archivesBaseURL + fields[4]
			filings = append(filings, &model.Filing{
				CIK:          fields[0],
				CompanyName:  fields[1],
				FormType:     fields[2],
				FilingDate:   fields[3],
				IndexTextURL: textURL,
				IndexHTMLURL: textToHTMLIndexURL(textURL),
			})
		}
	}
	return filings
}

// textToHTMLIndexURL derives the document index page URL from the raw
// submission URL: the ".txt" suffix becomes "-index.html". URLs without the
// suffix pass through unchanged.
func textToHTMLIndexURL(textURL string) string {
	if trimmed, ok := strings.CutSuffix(textURL, ".txt"); ok {
		return trimmed + "-index.html"
	}
	return textURL
}

package model

// Exhibit is one exhibit document row discovered on a filing index page,
// together with the filing it belongs to. Content is populated by the
// downloader; every other field is set by the locator.
type Exhibit struct {
	// IndexHTMLURL is the filing index page this exhibit was found on.
	IndexHTMLURL string `json:"index_html_url"`

	// Sequence is the document sequence number cell, e.g. "4".
	Sequence string `json:"sequence"`

	// Description is the document description cell.
	Description string `json:"description"`

	// DocumentURL is the absolute URL of the exhibit document.
	DocumentURL string `json:"document_url"`

	// DocumentType is the exhibit type cell, e.g. "EX-10.1".
	DocumentType string `json:"document_type"`

	// SizeText is the size cell as printed by EDGAR, e.g. "24761".
	SizeText string `json:"size_text"`

	// Filename is the last path segment of DocumentURL.
	Filename string `json:"filename"`

	// CIK, CompanyName, FormType and FilingDate identify the parent
	// filing, copied from the index row so each record stands alone.
	CIK         string `json:"cik"`
	CompanyName string `json:"company_name"`
	FormType    string `json:"form_type"`
	FilingDate  string `json:"filing_date"`

	// ReportDate is the "Period of Report" from the filing page header,
	// empty when the filing has none.
	ReportDate string `json:"report_date,omitempty"`

	// Content is the raw exhibit document body. Nil until downloaded.
	// The output store encodes it for persistence; it never travels
	// as plain JSON.
	Content []byte `json:"-"`
}

// Downloaded reports whether the exhibit body has been fetched.
func (e *Exhibit) Downloaded() bool {
	return len(e.Content) > 0
}

// Batch groups every exhibit of one filing index page under the page key.
// A batch is the unit of output: it is persisted once, atomically, only
// after all of its exhibits have content.
type Batch struct {
	// PageKey is PageKey(IndexHTMLURL).
	PageKey string `json:"page_key"`

	// IndexHTMLURL is the filing index page the batch was built from.
	IndexHTMLURL string `json:"index_html_url"`

	// Metadata is the filing page header information shared by all
	// exhibits in the batch.
	Metadata FilingMetadata `json:"metadata"`

	// Exhibits are the EX-10 family documents of the page, in page order.
	Exhibits []*Exhibit `json:"exhibits"`
}

// Complete reports whether every exhibit in the batch has been downloaded.
// Empty batches are never complete; they are dropped upstream.
func (b *Batch) Complete() bool {
	if len(b.Exhibits) == 0 {
		return false
	}
	for _, e := range b.Exhibits {
		if !e.Downloaded() {
			return false
		}
	}
	return true
}

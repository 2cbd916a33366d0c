package config

// File represents the structure of the .edgar-crawler.yaml configuration
// file. Every field is optional; the file provides defaults that CLI flags
// can still override.
type File struct {
	// UserAgent is the operator identity sent with every request.
	// Keeping it in the config file saves typing --user-agent on each run.
	UserAgent string `yaml:"user_agent,omitempty"`

	// StartYear and EndYear bound the default crawl range.
	StartYear int `yaml:"start_year,omitempty"`
	EndYear   int `yaml:"end_year,omitempty"`

	// Quarters restricts the crawl to the given quarters of each year.
	Quarters []int `yaml:"quarters,omitempty"`

	// FilingTypes are the form types retained by the index filter.
	FilingTypes []string `yaml:"filing_types,omitempty"`

	// ExhibitTypes are the exhibit type families collected.
	ExhibitTypes []string `yaml:"exhibit_types,omitempty"`

	// OutputDir is where exhibit batches are written.
	OutputDir string `yaml:"output_dir,omitempty"`

	// DataDir is where the fetch cache database lives.
	DataDir string `yaml:"data_dir,omitempty"`

	// Rate is the shared request rate in requests per second.
	Rate float64 `yaml:"rate,omitempty"`

	// MaxFilingPages caps how many filing pages one run processes.
	MaxFilingPages int `yaml:"max_filing_pages,omitempty"`

	// MaxRetryPasses is the ceiling on retry passes over failed units.
	MaxRetryPasses int `yaml:"max_retry_passes,omitempty"`

	// Workers is the number of filing pages processed concurrently.
	Workers int `yaml:"workers,omitempty"`

	// SkipExisting reuses batches already on disk. Pointer so the file
	// can distinguish "unset" from an explicit false.
	SkipExisting *bool `yaml:"skip_existing,omitempty"`
}

// Apply copies every value set in the file onto the config. Unset fields
// (zero values) leave the config untouched, so file values layer between
// built-in defaults and CLI flags.
func (f *File) Apply(c *Config) {
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.StartYear != 0 {
		c.StartYear = f.StartYear
	}
	if f.EndYear != 0 {
		c.EndYear = f.EndYear
	}
	if len(f.Quarters) > 0 {
		c.Quarters = f.Quarters
	}
	if len(f.FilingTypes) > 0 {
		c.FilingTypes = f.FilingTypes
	}
	if len(f.ExhibitTypes) > 0 {
		c.ExhibitTypes = f.ExhibitTypes
	}
	if f.OutputDir != "" {
		c.OutputDir = f.OutputDir
	}
	if f.DataDir != "" {
		c.DataDir = f.DataDir
	}
	if f.Rate != 0 {
		c.RequestsPerSecond = f.Rate
	}
	if f.MaxFilingPages != 0 {
		c.MaxFilingPages = f.MaxFilingPages
	}
	if f.MaxRetryPasses != 0 {
		c.MaxRetryPasses = f.MaxRetryPasses
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.SkipExisting != nil {
		c.SkipExisting = *f.SkipExisting
	}
}

package types

import "time"

const dateFmt = "2006-01-02"

// DefaultSearchDays is the default search window length.
const DefaultSearchDays = 30

// Window is an inclusive range of calendar dates. Since and Until carry
// midnight UTC of their respective days.
type Window struct {
	Since time.Time
	Until time.Time
}

// NewWindow returns the window of days calendar days ending on the date of
// now. A window of 30 days requested on 2026-10-19 spans 2026-09-19 through
// 2026-10-19.
func NewWindow(now time.Time, days int) Window {
	if days < 0 {
		days = 0
	}
	until := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		Since: until.AddDate(0, 0, -days),
		Until: until,
	}
}

// SinceDate formats Since as YYYY-MM-DD.
func (w Window) SinceDate() string { return w.Since.Format(dateFmt) }

// UntilDate formats Until as YYYY-MM-DD.
func (w Window) UntilDate() string { return w.Until.Format(dateFmt) }

// HTTPConfig holds shared HTTP settings for the CrossRef client.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the base User-Agent header (e.g. "journal-club/1.2.0").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the total number of attempts for a transient failure
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ScanConfig is the resolved configuration handed to the pipeline.
type ScanConfig struct {
	HTTPConfig `yaml:",inline"`

	// Journals lists validated journals in scan order.
	Journals []JournalSpec `json:"journals" yaml:"journals"`

	// Keywords lists normalized keywords in configuration order.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// SearchDays is the lookback length of the search window (default 30).
	SearchDays int `json:"search_days" yaml:"search_days"`

	// Email is the optional contact address sent to CrossRef for polite
	// pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// Rows is the CrossRef page size (default 100).
	Rows int `json:"rows" yaml:"rows"`

	// MaxResults caps records per journal; 0 means no cap.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// OutputPath overrides the generated results filename when non-empty.
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	// NoReview accepts every match without interactive review.
	NoReview bool `json:"no_review" yaml:"no_review"`
}

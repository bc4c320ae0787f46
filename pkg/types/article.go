// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the journal-club pipeline:
// journals, articles, keyword matches, the search window and the resolved
// scan configuration.
package types

import (
	"fmt"
	"strings"
	"time"
)

// JournalSpec identifies a journal to scan. Identity is the ISSN.
type JournalSpec struct {
	// Name is the human-readable journal name from configuration.
	Name string `json:"name" yaml:"name"`

	// ISSN is the journal identifier used to scope CrossRef queries
	// (e.g. "0028-0836").
	ISSN string `json:"issn" yaml:"issn"`
}

// String returns "Name (ISSN)".
func (j JournalSpec) String() string {
	return fmt.Sprintf("%s (%s)", j.Name, j.ISSN)
}

// PubDate is a publication date as reported by CrossRef date-parts. Month
// and Day are zero when the source only reports a partial date.
type PubDate struct {
	Year  int `json:"year" yaml:"year"`
	Month int `json:"month,omitempty" yaml:"month,omitempty"`
	Day   int `json:"day,omitempty" yaml:"day,omitempty"`
}

// IsZero reports whether no date is known.
func (d PubDate) IsZero() bool {
	return d.Year == 0
}

// String renders the date as YYYY-MM-DD, YYYY-MM or YYYY depending on
// precision, and "" for a zero date.
func (d PubDate) String() string {
	switch {
	case d.Year == 0:
		return ""
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// ParsePubDate is the inverse of PubDate.String.
func ParsePubDate(s string) (PubDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PubDate{}, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d := PubDate{Year: t.Year()}
		if len(layout) >= 7 {
			d.Month = int(t.Month())
		}
		if len(layout) == 10 {
			d.Day = t.Day()
		}
		return d, nil
	}
	return PubDate{}, fmt.Errorf("invalid publication date %q", s)
}

// Article is a journal article created by the source client from a raw
// CrossRef record. Title and Abstract are plain text with markup removed.
// Read-only downstream; unique by DOI within a single run.
type Article struct {
	// Title is the article title. Never empty.
	Title string `json:"title" yaml:"title"`

	// Abstract is the article abstract. May be empty.
	Abstract string `json:"abstract" yaml:"abstract"`

	// DOI is the bare DOI (e.g. "10.1038/s41586-024-07487-w").
	DOI string `json:"doi" yaml:"doi"`

	// URL links to the article, https://doi.org/<DOI> when a DOI is known.
	URL string `json:"url" yaml:"url"`

	// Authors lists "Given Family" names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// JournalName is the container title reported by CrossRef, or the
	// configured journal name when CrossRef has none.
	JournalName string `json:"journal_name" yaml:"journal_name"`

	// Published is the print, online or issued date, in that preference.
	Published PubDate `json:"published" yaml:"published"`
}

// MatchResult pairs an Article with the configured keywords it contains.
// Keywords is never empty for a result that reaches review or output.
type MatchResult struct {
	Article  Article  `json:"article" yaml:"article"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

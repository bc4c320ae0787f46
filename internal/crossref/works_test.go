// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/journal-club/pkg/types"
)

const sampleWorkJSON = `{
  "DOI": "10.1038/s41586-026-00001-x",
  "URL": "https://dx.doi.org/10.1038/s41586-026-00001-x",
  "title": ["Base editing in <i>Drosophila</i> neurons"],
  "abstract": "<jats:title>Abstract</jats:title><jats:p>We apply CRISPR base editing.</jats:p><jats:p>Results follow.</jats:p>",
  "container-title": ["Nature"],
  "author": [
    {"given": "Ada", "family": "Lovelace"},
    {"family": "Curie"},
    {"name": "The Fly Consortium"}
  ],
  "published-online": {"date-parts": [[2026, 9, 30]]},
  "published-print": {"date-parts": [[2026, 10]]},
  "issued": {"date-parts": [[2026, 9, 30]]}
}`

func TestParseWork(t *testing.T) {
	var w work
	require.NoError(t, json.Unmarshal([]byte(sampleWorkJSON), &w))

	a, err := parseWork(w, "Configured Name")
	require.NoError(t, err)

	assert.Equal(t, "Base editing in Drosophila neurons", a.Title)
	assert.Equal(t, "We apply CRISPR base editing. Results follow.", a.Abstract)
	assert.Equal(t, "10.1038/s41586-026-00001-x", a.DOI)
	assert.Equal(t, "https://doi.org/10.1038/s41586-026-00001-x", a.URL)
	assert.Equal(t, "Nature", a.JournalName)
	assert.Equal(t, []string{"Ada Lovelace", "Curie", "The Fly Consortium"}, a.Authors)
	// published-print wins even when it only has year and month.
	assert.Equal(t, types.PubDate{Year: 2026, Month: 10}, a.Published)
}

func TestParseWorkFallbacks(t *testing.T) {
	w := work{
		Title:  []string{"Untitled journal article"},
		URL:    "https://example.org/article/1",
		Issued: &crossrefDate{DateParts: [][]int{{2025}}},
	}

	a, err := parseWork(w, "Configured Name")
	require.NoError(t, err)

	assert.Equal(t, "Configured Name", a.JournalName)
	assert.Equal(t, "https://example.org/article/1", a.URL)
	assert.Empty(t, a.DOI)
	assert.Empty(t, a.Abstract)
	assert.Equal(t, types.PubDate{Year: 2025}, a.Published)
}

func TestParseWorkNoTitle(t *testing.T) {
	for _, titles := range [][]string{nil, {}, {""}, {"  <b> </b> "}} {
		_, err := parseWork(work{Title: titles, DOI: "10.1/x"}, "J")
		assert.ErrorIs(t, err, errNoTitle)
	}
}

func TestParseWorkMalformed(t *testing.T) {
	_, err := parseWork(work{Title: []string{"Lonely"}}, "J")
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestCrossrefDatePubDate(t *testing.T) {
	tests := []struct {
		name   string
		date   *crossrefDate
		want   types.PubDate
		wantOK bool
	}{
		{"nil", nil, types.PubDate{}, false},
		{"empty parts", &crossrefDate{DateParts: [][]int{{}}}, types.PubDate{}, false},
		{"null year", &crossrefDate{DateParts: [][]int{{0}}}, types.PubDate{}, false},
		{"year", &crossrefDate{DateParts: [][]int{{2026}}}, types.PubDate{Year: 2026}, true},
		{"full", &crossrefDate{DateParts: [][]int{{2026, 2, 28}}}, types.PubDate{Year: 2026, Month: 2, Day: 28}, true},
		{"bad month drops day", &crossrefDate{DateParts: [][]int{{2026, 13, 1}}}, types.PubDate{Year: 2026}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.date.pubDate()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

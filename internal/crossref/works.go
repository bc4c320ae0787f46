// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crossref

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/journal-club/internal/markup"
	"github.com/pdiddy/journal-club/pkg/types"
)

const doiBase = "https://doi.org/"

// errNoTitle marks records that are excluded silently.
var errNoTitle = errors.New("record has no title")

// CrossRef API JSON structures.
type worksResponse struct {
	Status  string       `json:"status"`
	Message worksMessage `json:"message"`
}

type worksMessage struct {
	TotalResults int    `json:"total-results"`
	NextCursor   string `json:"next-cursor"`
	Items        []work `json:"items"`
}

type work struct {
	DOI             string        `json:"DOI"`
	URL             string        `json:"URL"`
	Title           []string      `json:"title"`
	Abstract        string        `json:"abstract"`
	ContainerTitle  []string      `json:"container-title"`
	Author          []author      `json:"author"`
	PublishedPrint  *crossrefDate `json:"published-print"`
	PublishedOnline *crossrefDate `json:"published-online"`
	Published       *crossrefDate `json:"published"`
	Issued          *crossrefDate `json:"issued"`
}

type author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// pubDate converts the first date-parts entry; CrossRef may report only a
// year or a year and month.
func (d *crossrefDate) pubDate() (types.PubDate, bool) {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return types.PubDate{}, false
	}
	parts := d.DateParts[0]
	if parts[0] <= 0 {
		return types.PubDate{}, false
	}
	pd := types.PubDate{Year: parts[0]}
	if len(parts) >= 2 && parts[1] >= 1 && parts[1] <= 12 {
		pd.Month = parts[1]
		if len(parts) >= 3 && parts[2] >= 1 && parts[2] <= 31 {
			pd.Day = parts[2]
		}
	}
	return pd, true
}

// parseWork converts a CrossRef work into an Article. It returns errNoTitle
// for untitled records and an ErrMalformedRecord error for records with
// neither DOI nor URL.
func parseWork(w work, fallbackJournal string) (types.Article, error) {
	var title string
	if len(w.Title) > 0 {
		title = markup.Strip(w.Title[0])
	}
	if title == "" {
		return types.Article{}, errNoTitle
	}

	a := types.Article{
		Title:    title,
		Abstract: markup.StripAbstract(w.Abstract),
		DOI:      strings.TrimSpace(w.DOI),
	}

	switch {
	case a.DOI != "":
		a.URL = doiBase + a.DOI
	case w.URL != "":
		a.URL = w.URL
	default:
		return types.Article{}, fmt.Errorf("%w: %q has neither DOI nor URL", ErrMalformedRecord, title)
	}

	if len(w.ContainerTitle) > 0 {
		a.JournalName = markup.Strip(w.ContainerTitle[0])
	}
	if a.JournalName == "" {
		a.JournalName = fallbackJournal
	}

	for _, d := range []*crossrefDate{w.PublishedPrint, w.PublishedOnline, w.Published, w.Issued} {
		if pd, ok := d.pubDate(); ok {
			a.Published = pd
			break
		}
	}

	for _, au := range w.Author {
		if name := authorName(au); name != "" {
			a.Authors = append(a.Authors, name)
		}
	}
	return a, nil
}

func authorName(a author) string {
	switch {
	case a.Given != "" && a.Family != "":
		return strings.TrimSpace(a.Given) + " " + strings.TrimSpace(a.Family)
	case a.Family != "":
		return strings.TrimSpace(a.Family)
	default:
		return strings.TrimSpace(a.Name)
	}
}

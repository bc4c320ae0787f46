// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crossref retrieves recently published journal articles from the
// CrossRef REST API: windowed, cursor-paginated retrieval per ISSN with
// bounded retry of transient failures.
package crossref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/journal-club/internal/httputil"
	"github.com/pdiddy/journal-club/internal/logging"
	"github.com/pdiddy/journal-club/pkg/types"
)

// apiBase is the CrossRef REST API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.crossref.org"

const (
	// DefaultRows is the page size requested from CrossRef.
	DefaultRows = 100
	// maxRows is the largest page CrossRef serves.
	maxRows = 1000

	defaultUserAgent = "journal-club/dev"
)

var (
	// ErrTransient marks failures that survived every retry: transport
	// errors, timeouts, HTTP 429 and HTTP 5xx.
	ErrTransient = errors.New("transient CrossRef failure")

	// ErrPermanent marks failures retrying cannot fix: a malformed ISSN,
	// HTTP 4xx other than 429, or an undecodable response.
	ErrPermanent = errors.New("permanent CrossRef failure")

	// ErrMalformedRecord marks a single record that was dropped.
	ErrMalformedRecord = errors.New("malformed CrossRef record")
)

// Client queries the CrossRef works endpoint for one journal at a time.
// The zero value is usable: it sends 100-row pages with http.DefaultClient.
type Client struct {
	// HTTP performs the requests. Nil means http.DefaultClient.
	HTTP *http.Client

	// Email is sent as mailto for CrossRef polite pool access. Optional.
	Email string

	// UserAgent is the base User-Agent; the mailto suffix is appended.
	UserAgent string

	// Rows is the page size (default 100, capped at 1000).
	Rows int

	// MaxResults caps records yielded per journal; 0 means no cap.
	MaxResults int

	// MaxAttempts bounds requests per page for transient failures
	// (default 3).
	MaxAttempts int

	// Log receives request and retry diagnostics. Nil discards them.
	Log logrus.FieldLogger
}

// NewClient returns a Client configured from cfg.
func NewClient(httpClient *http.Client, cfg types.ScanConfig, log logrus.FieldLogger) *Client {
	return &Client{
		HTTP:        httpClient,
		Email:       cfg.Email,
		UserAgent:   cfg.UserAgent,
		Rows:        cfg.Rows,
		MaxResults:  cfg.MaxResults,
		MaxAttempts: cfg.MaxRetries,
		Log:         log,
	}
}

// Fetch returns the articles journal published within window, newest first,
// as a lazy sequence. Pages are requested only as the consumer iterates.
//
// Articles without a title never appear. A record that has a title but no
// DOI or URL is reported as an error wrapping ErrMalformedRecord and the
// sequence continues. Any other error (wrapping ErrTransient, ErrPermanent
// or a context error) is yielded once and ends the sequence; articles
// yielded before it remain valid.
//
// Pagination follows next-cursor and stops at the first empty page, a page
// without a cursor, or a page whose records were all seen on earlier pages.
// Records excluded for lacking a title or link still count as unseen.
func (c *Client) Fetch(ctx context.Context, journal types.JournalSpec, window types.Window) iter.Seq2[types.Article, error] {
	return func(yield func(types.Article, error) bool) {
		issn, ok := NormalizeISSN(journal.ISSN)
		if !ok {
			yield(types.Article{}, fmt.Errorf("%w: invalid ISSN %q", ErrPermanent, journal.ISSN))
			return
		}

		log := c.logger().WithFields(logrus.Fields{"journal": journal.Name, "issn": issn})
		seen := make(map[string]bool)
		seenItems := make(map[string]bool)
		cursor := "*"
		yielded := 0

		for page := 1; ; page++ {
			msg, err := c.fetchPage(ctx, issn, window, cursor, log)
			if err != nil {
				yield(types.Article{}, err)
				return
			}
			log.WithFields(logrus.Fields{"page": page, "items": len(msg.Items)}).Debug("page received")
			if len(msg.Items) == 0 {
				return
			}

			fresh := 0
			for _, item := range msg.Items {
				if key := itemKey(item); key != "" && !seenItems[key] {
					seenItems[key] = true
					fresh++
				}

				a, err := parseWork(item, journal.Name)
				if errors.Is(err, errNoTitle) {
					continue
				}
				if err != nil {
					if !yield(types.Article{}, err) {
						return
					}
					continue
				}

				key := dedupKey(a)
				if seen[key] {
					continue
				}
				seen[key] = true

				if !yield(a, nil) {
					return
				}
				yielded++
				if c.MaxResults > 0 && yielded >= c.MaxResults {
					return
				}
			}

			if fresh == 0 || msg.NextCursor == "" {
				return
			}
			cursor = msg.NextCursor
		}
	}
}

// fetchPage requests one page of works and classifies failures.
func (c *Client) fetchPage(ctx context.Context, issn string, window types.Window, cursor string, log logrus.FieldLogger) (*worksMessage, error) {
	params := url.Values{
		"filter": {"from-pub-date:" + window.SinceDate() + ",until-pub-date:" + window.UntilDate()},
		"rows":   {strconv.Itoa(c.rows())},
		"sort":   {"published"},
		"order":  {"desc"},
		"cursor": {cursor},
	}
	if c.Email != "" {
		params.Set("mailto", c.Email)
	}
	reqURL := apiBase + "/journals/" + url.PathEscape(issn) + "/works?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrPermanent, err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")

	log.WithField("url", reqURL).Debug("requesting page")

	resp, err := httputil.DoWithRetry(ctx, c.httpClient(), req, c.MaxAttempts, log)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: CrossRef API request: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if httputil.IsTransientStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: CrossRef API returned HTTP %d", ErrTransient, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: CrossRef API returned HTTP %d", ErrPermanent, resp.StatusCode)
	}

	var wr worksResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("%w: parsing CrossRef response: %w", ErrPermanent, err)
	}
	return &wr.Message, nil
}

func (c *Client) rows() int {
	switch {
	case c.Rows <= 0:
		return DefaultRows
	case c.Rows > maxRows:
		return maxRows
	default:
		return c.Rows
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log != nil {
		return c.Log
	}
	return logging.Discard()
}

// userAgent appends the polite-pool contact to the base agent.
func (c *Client) userAgent() string {
	ua := c.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	if c.Email != "" {
		ua += " (mailto:" + c.Email + ")"
	}
	return ua
}

// dedupKey identifies an article within one journal: DOI when present,
// then URL, then the lowercased title.
func dedupKey(a types.Article) string {
	switch {
	case a.DOI != "":
		return "doi:" + strings.ToLower(a.DOI)
	case a.URL != "":
		return "url:" + a.URL
	default:
		return "title:" + strings.ToLower(a.Title)
	}
}

// itemKey identifies an upstream record before any filtering, so records
// that are later excluded still count as progress through the cursor.
// Records with no DOI, URL or title have no key.
func itemKey(w work) string {
	switch {
	case strings.TrimSpace(w.DOI) != "":
		return "doi:" + strings.ToLower(strings.TrimSpace(w.DOI))
	case strings.TrimSpace(w.URL) != "":
		return "url:" + strings.TrimSpace(w.URL)
	case len(w.Title) > 0 && strings.TrimSpace(w.Title[0]) != "":
		return "title:" + strings.ToLower(strings.TrimSpace(w.Title[0]))
	default:
		return ""
	}
}

// NormalizeISSN validates an ISSN of the form NNNN-NNNC (hyphen optional,
// check character a digit or X) and returns it hyphenated with an
// uppercase X.
func NormalizeISSN(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.Replace(s, "-", "", 1)
	if len(s) != 8 {
		return "", false
	}
	for i, r := range s {
		isDigit := r >= '0' && r <= '9'
		if !isDigit && !(i == 7 && r == 'X') {
			return "", false
		}
	}
	return s[:4] + "-" + s[4:], true
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/journal-club/internal/crossref"
	"github.com/pdiddy/journal-club/internal/output"
	"github.com/pdiddy/journal-club/internal/review"
	"github.com/pdiddy/journal-club/pkg/types"
)

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

// fakeSource serves canned articles per ISSN. A non-nil entry in fail ends
// that journal's sequence with the error after its articles.
type fakeSource struct {
	articles map[string][]types.Article
	fail     map[string]error
	windows  []types.Window
	calls    []string
}

func (s *fakeSource) Fetch(_ context.Context, j types.JournalSpec, w types.Window) iter.Seq2[types.Article, error] {
	s.calls = append(s.calls, j.ISSN)
	s.windows = append(s.windows, w)
	return func(yield func(types.Article, error) bool) {
		for _, a := range s.articles[j.ISSN] {
			if !yield(a, nil) {
				return
			}
		}
		if err := s.fail[j.ISSN]; err != nil {
			yield(types.Article{}, err)
		}
	}
}

// scriptedReviewer accepts the matches at the given indexes.
type scriptedReviewer struct {
	keep  map[int]bool
	calls int
	seen  []types.MatchResult
	err   error
}

func (r *scriptedReviewer) Run(_ context.Context, matches []types.MatchResult) (review.Result, error) {
	r.calls++
	r.seen = matches
	var res review.Result
	for i, m := range matches {
		res.Presented++
		if r.keep[i] {
			res.Accepted = append(res.Accepted, m)
		} else {
			res.Skipped++
		}
	}
	return res, r.err
}

type recordingWriter struct {
	calls    int
	accepted []types.MatchResult
	path     string
	err      error
}

func (w *recordingWriter) Write(accepted []types.MatchResult, path string) (string, error) {
	w.calls++
	w.accepted = accepted
	w.path = path
	if path == "" {
		path = "results.csv"
	}
	return path, w.err
}

func art(doi, title string) types.Article {
	return types.Article{DOI: doi, Title: title, JournalName: "J", URL: "https://doi.org/" + doi}
}

func journals(issns ...string) []types.JournalSpec {
	var js []types.JournalSpec
	for _, issn := range issns {
		js = append(js, types.JournalSpec{Name: "Journal " + issn, ISSN: issn})
	}
	return js
}

func scanConfig(issns ...string) types.ScanConfig {
	return types.ScanConfig{
		Journals:   journals(issns...),
		Keywords:   []string{"crispr"},
		SearchDays: 30,
	}
}

func newPipeline(src Source, rev Reviewer, w ResultWriter, out *bytes.Buffer) *Pipeline {
	return &Pipeline{
		Source:   src,
		Reviewer: rev,
		Writer:   w,
		Out:      out,
		Now:      func() time.Time { return fixedNow },
	}
}

func dois(matches []types.MatchResult) []string {
	var out []string
	for _, m := range matches {
		out = append(out, m.Article.DOI)
	}
	return out
}

func TestRunOrderAndFilter(t *testing.T) {
	src := &fakeSource{articles: map[string][]types.Article{
		"1111-1111": {art("10.1/a", "CRISPR screens"), art("10.1/b", "Galaxies")},
		"2222-2222": {art("10.2/c", "Base editing beyond CRISPR"), art("10.2/d", "crispr again")},
	}}
	rev := &scriptedReviewer{keep: map[int]bool{0: true, 2: true}}
	w := &recordingWriter{}
	var out bytes.Buffer

	sum, err := newPipeline(src, rev, w, &out).Run(context.Background(), scanConfig("1111-1111", "2222-2222"))
	require.NoError(t, err)

	assert.Equal(t, []string{"1111-1111", "2222-2222"}, src.calls)
	assert.Equal(t, []string{"10.1/a", "10.2/c", "10.2/d"}, dois(rev.seen))
	assert.Equal(t, []string{"10.1/a", "10.2/d"}, dois(w.accepted))
	assert.Equal(t, 1, rev.calls)
	assert.Equal(t, 1, w.calls)

	assert.Equal(t, Summary{
		Journals:   2,
		Fetched:    4,
		Matched:    3,
		Presented:  3,
		Accepted:   2,
		Rejected:   1,
		OutputPath: "results.csv",
	}, sum)
	assert.Contains(t, out.String(), "Run summary: 4 fetched, 3 matched, 2 accepted, 0 skipped journal(s)")
}

func TestRunWindowComputedOnce(t *testing.T) {
	src := &fakeSource{}
	cfg := scanConfig("1111-1111", "2222-2222", "3333-3333")
	cfg.SearchDays = 7

	_, err := newPipeline(src, &scriptedReviewer{}, &recordingWriter{}, &bytes.Buffer{}).Run(context.Background(), cfg)
	require.NoError(t, err)

	want := types.NewWindow(fixedNow, 7)
	require.Len(t, src.windows, 3)
	for _, w := range src.windows {
		assert.Equal(t, want, w)
	}
}

func TestRunDeduplicatesAcrossJournals(t *testing.T) {
	src := &fakeSource{articles: map[string][]types.Article{
		"1111-1111": {art("10.1/shared", "CRISPR first")},
		"2222-2222": {art("10.1/SHARED", "CRISPR repeat"), art("10.2/own", "CRISPR own")},
	}}
	w := &recordingWriter{}
	cfg := scanConfig("1111-1111", "2222-2222")
	cfg.NoReview = true

	sum, err := newPipeline(src, nil, w, &bytes.Buffer{}).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"10.1/shared", "10.2/own"}, dois(w.accepted))
	assert.Equal(t, 1, sum.Duplicates)
	assert.Equal(t, 3, sum.Fetched)
}

func TestRunFailingJournalIsSkipped(t *testing.T) {
	src := &fakeSource{
		articles: map[string][]types.Article{
			"2222-2222": {art("10.2/a", "CRISPR works")},
		},
		fail: map[string]error{
			"1111-1111": fmt.Errorf("%w: HTTP 404", crossref.ErrPermanent),
		},
	}
	w := &recordingWriter{}
	var out bytes.Buffer
	cfg := scanConfig("1111-1111", "2222-2222")
	cfg.NoReview = true

	sum, err := newPipeline(src, nil, w, &out).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, w.calls)
	assert.Equal(t, []string{"10.2/a"}, dois(w.accepted))
	assert.Equal(t, 1, sum.SkippedJournals)
	assert.Contains(t, out.String(), "warning: skipping Journal 1111-1111 (1111-1111): ")
	assert.Contains(t, out.String(), "HTTP 404")
	assert.Contains(t, out.String(), "1 skipped journal(s)")
}

func TestRunAllJournalsFailStillWrites(t *testing.T) {
	boom := fmt.Errorf("%w: HTTP 503", crossref.ErrTransient)
	src := &fakeSource{fail: map[string]error{"1111-1111": boom, "2222-2222": boom}}
	rev := &scriptedReviewer{}
	w := &recordingWriter{}

	sum, err := newPipeline(src, rev, w, &bytes.Buffer{}).Run(context.Background(), scanConfig("1111-1111", "2222-2222"))
	require.NoError(t, err)

	assert.Equal(t, 2, sum.SkippedJournals)
	assert.Equal(t, 1, w.calls)
	assert.Empty(t, w.accepted)
	assert.Equal(t, 1, rev.calls)
}

func TestRunPartialJournalKeepsFetched(t *testing.T) {
	src := &fakeSource{
		articles: map[string][]types.Article{
			"1111-1111": {art("10.1/a", "CRISPR page one")},
		},
		fail: map[string]error{"1111-1111": fmt.Errorf("%w: HTTP 500", crossref.ErrTransient)},
	}
	w := &recordingWriter{}
	cfg := scanConfig("1111-1111")
	cfg.NoReview = true

	sum, err := newPipeline(src, nil, w, &bytes.Buffer{}).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.SkippedJournals)
	assert.Equal(t, []string{"10.1/a"}, dois(w.accepted))
}

func TestRunMalformedRecordsCounted(t *testing.T) {
	src := &fakeSource{
		articles: map[string][]types.Article{"1111-1111": {art("10.1/a", "CRISPR")}},
		fail:     map[string]error{"1111-1111": fmt.Errorf("%w: no DOI or URL", crossref.ErrMalformedRecord)},
	}
	cfg := scanConfig("1111-1111")
	cfg.NoReview = true

	sum, err := newPipeline(src, nil, &recordingWriter{}, &bytes.Buffer{}).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Malformed)
	assert.Zero(t, sum.SkippedJournals)
	assert.Equal(t, 1, sum.Accepted)
}

func TestRunNoReviewAcceptsAll(t *testing.T) {
	src := &fakeSource{articles: map[string][]types.Article{
		"1111-1111": {art("10.1/a", "CRISPR a"), art("10.1/b", "CRISPR b"), art("10.1/c", "other")},
	}}
	rev := &scriptedReviewer{}
	w := &recordingWriter{}
	var out bytes.Buffer
	cfg := scanConfig("1111-1111")
	cfg.NoReview = true

	sum, err := newPipeline(src, rev, w, &out).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Zero(t, rev.calls)
	assert.Equal(t, []string{"10.1/a", "10.1/b"}, dois(w.accepted))
	assert.Equal(t, 2, sum.Accepted)
	assert.Zero(t, sum.Presented)
	assert.Contains(t, out.String(), "Run summary: 3 fetched, 2 matched, 2 accepted, 0 skipped journal(s)")
}

func TestRunZeroMatchesWrites(t *testing.T) {
	src := &fakeSource{articles: map[string][]types.Article{"1111-1111": {art("10.1/a", "Galaxies")}}}
	rev := &scriptedReviewer{}
	w := &recordingWriter{}

	sum, err := newPipeline(src, rev, w, &bytes.Buffer{}).Run(context.Background(), scanConfig("1111-1111"))
	require.NoError(t, err)

	assert.Equal(t, 1, w.calls)
	assert.Empty(t, w.accepted)
	assert.Zero(t, sum.Matched)
}

func TestRunOutputPathPassedThrough(t *testing.T) {
	w := &recordingWriter{}
	cfg := scanConfig("1111-1111")
	cfg.OutputPath = "picks.md"

	sum, err := newPipeline(&fakeSource{}, &scriptedReviewer{}, w, &bytes.Buffer{}).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "picks.md", w.path)
	assert.Equal(t, "picks.md", sum.OutputPath)
}

func TestRunWriteFailureIsFatal(t *testing.T) {
	src := &fakeSource{articles: map[string][]types.Article{"1111-1111": {art("10.1/a", "CRISPR")}}}
	w := &recordingWriter{err: &output.WriteError{Path: "x.csv", Err: errors.New("disk full")}}
	var out bytes.Buffer

	_, err := newPipeline(src, &scriptedReviewer{keep: map[int]bool{0: true}}, w, &out).Run(context.Background(), scanConfig("1111-1111"))
	require.Error(t, err)

	assert.ErrorIs(t, err, output.ErrWrite)
	assert.Contains(t, err.Error(), "review decisions were lost")
	assert.Contains(t, out.String(), "Run summary:")
}

func TestRunReviewErrorKeepsAccepted(t *testing.T) {
	src := &fakeSource{articles: map[string][]types.Article{"1111-1111": {art("10.1/a", "CRISPR")}}}
	rev := &scriptedReviewer{keep: map[int]bool{0: true}, err: errors.New("terminal gone")}
	w := &recordingWriter{}
	var out bytes.Buffer

	sum, err := newPipeline(src, rev, w, &out).Run(context.Background(), scanConfig("1111-1111"))
	require.NoError(t, err)

	assert.True(t, sum.Quit)
	assert.Equal(t, []string{"10.1/a"}, dois(w.accepted))
	assert.Contains(t, out.String(), "warning: review interrupted: terminal gone")
}

func TestRunCancelledBeforeFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{}
	w := &recordingWriter{}

	_, err := newPipeline(src, &scriptedReviewer{}, w, &bytes.Buffer{}).Run(ctx, scanConfig("1111-1111"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, src.calls)
	assert.Zero(t, w.calls)
}

// cancellingSource cancels the run while the first journal is fetched.
type cancellingSource struct {
	cancel context.CancelFunc
}

func (s *cancellingSource) Fetch(ctx context.Context, _ types.JournalSpec, _ types.Window) iter.Seq2[types.Article, error] {
	return func(yield func(types.Article, error) bool) {
		s.cancel()
		yield(types.Article{}, ctx.Err())
	}
}

func TestRunCancelledDuringFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &recordingWriter{}
	var out bytes.Buffer

	_, err := newPipeline(&cancellingSource{cancel: cancel}, &scriptedReviewer{}, w, &out).Run(ctx, scanConfig("1111-1111"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, w.calls)
	assert.NotContains(t, out.String(), "warning: skipping")
}

// TestRunWithSessionAndWriter drives the real review session and CSV
// writer: keep, skip, quit over three matches saves exactly one row.
func TestRunWithSessionAndWriter(t *testing.T) {
	src := &fakeSource{articles: map[string][]types.Article{
		"1111-1111": {art("10.1/a", "CRISPR one"), art("10.1/b", "CRISPR two"), art("10.1/c", "CRISPR three")},
	}}
	dir := t.TempDir()
	var out bytes.Buffer
	p := &Pipeline{
		Source:   src,
		Reviewer: review.NewSession(strings.NewReader("y\nn\nq\n"), &out),
		Writer:   &output.Writer{Dir: dir, Now: func() time.Time { return fixedNow }},
		Out:      &out,
		Now:      func() time.Time { return fixedNow },
	}

	sum, err := p.Run(context.Background(), scanConfig("1111-1111"))
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Accepted)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 3, sum.Presented)
	assert.True(t, sum.Quit)
	assert.Equal(t, filepath.Join(dir, "results_2026-10-19_090000.csv"), sum.OutputPath)

	data, err := os.ReadFile(sum.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "10.1/a")
}

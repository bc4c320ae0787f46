// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one journal-club scan: fetch each journal, filter
// by keyword, review the matches and write the accepted set.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/journal-club/internal/crossref"
	"github.com/pdiddy/journal-club/internal/filter"
	"github.com/pdiddy/journal-club/internal/logging"
	"github.com/pdiddy/journal-club/internal/review"
	"github.com/pdiddy/journal-club/pkg/types"
)

// Source yields the articles one journal published within a window.
type Source interface {
	Fetch(ctx context.Context, journal types.JournalSpec, window types.Window) iter.Seq2[types.Article, error]
}

// Reviewer lets the user decide which matches to keep.
type Reviewer interface {
	Run(ctx context.Context, matches []types.MatchResult) (review.Result, error)
}

// ResultWriter persists the accepted set and returns the path written.
type ResultWriter interface {
	Write(accepted []types.MatchResult, path string) (string, error)
}

// Summary holds the counts of one run.
type Summary struct {
	Journals        int
	SkippedJournals int
	Fetched         int
	Malformed       int
	Duplicates      int
	Matched         int
	Presented       int
	Accepted        int
	Rejected        int
	Quit            bool
	OutputPath      string
}

// Pipeline wires the stages of a scan. Out receives operator-facing
// progress. Reviewer is not consulted when the scan runs without review.
type Pipeline struct {
	Source   Source
	Reviewer Reviewer
	Writer   ResultWriter
	Out      io.Writer
	Now      func() time.Time
	Log      logrus.FieldLogger
}

// Run executes one scan. A journal that fails is reported and skipped; the
// articles it yielded before failing are kept. The writer is called exactly
// once, even when nothing matched. Run returns an error only when the
// results cannot be written or ctx is cancelled before review.
func (p *Pipeline) Run(ctx context.Context, cfg types.ScanConfig) (Summary, error) {
	var sum Summary
	out := p.out()
	log := p.logger()

	window := types.NewWindow(p.now(), cfg.SearchDays)
	keywords := filter.Normalize(cfg.Keywords)
	sum.Journals = len(cfg.Journals)

	fmt.Fprintf(out, "Scanning %d journal(s) for articles published %s to %s\n",
		len(cfg.Journals), window.SinceDate(), window.UntilDate())
	fmt.Fprintf(out, "Keywords: %s\n\n", strings.Join(keywords, ", "))

	seen := make(map[string]bool)
	var matches []types.MatchResult
	for _, journal := range cfg.Journals {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		jlog := log.WithFields(logrus.Fields{"journal": journal.Name, "issn": journal.ISSN})
		articles, err := p.collect(ctx, journal, window, seen, &sum, jlog)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			fmt.Fprintf(out, "warning: skipping %s: %v\n", journal, err)
			jlog.WithError(err).Warn("journal skipped")
			sum.SkippedJournals++
			if len(articles) == 0 {
				continue
			}
		}

		found := filter.Apply(articles, keywords)
		fmt.Fprintf(out, "%s: %d article(s), %d match(es)\n", journal, len(articles), len(found))
		matches = append(matches, found...)
	}
	sum.Matched = len(matches)
	fmt.Fprintln(out)

	accepted := p.review(ctx, cfg, matches, &sum)
	sum.Accepted = len(accepted)

	path, err := p.Writer.Write(accepted, cfg.OutputPath)
	sum.OutputPath = path
	if err != nil {
		printSummary(out, sum)
		return sum, fmt.Errorf("saving %d accepted article(s) failed, review decisions were lost: %w", len(accepted), err)
	}
	fmt.Fprintf(out, "Saved %d article(s) to %s\n", len(accepted), path)
	printSummary(out, sum)
	log.WithFields(logrus.Fields{"path": path, "accepted": len(accepted)}).Info("results written")

	return sum, nil
}

// collect drains one journal's sequence, dropping articles whose DOI was
// already seen in this run. Malformed records are counted and skipped; any
// other error ends the journal and is returned with what was collected.
func (p *Pipeline) collect(ctx context.Context, journal types.JournalSpec, window types.Window,
	seen map[string]bool, sum *Summary, log logrus.FieldLogger) ([]types.Article, error) {

	var articles []types.Article
	for a, err := range p.Source.Fetch(ctx, journal, window) {
		if err != nil {
			if errors.Is(err, crossref.ErrMalformedRecord) {
				sum.Malformed++
				log.WithError(err).Debug("malformed record dropped")
				continue
			}
			return articles, err
		}

		sum.Fetched++
		if a.DOI != "" {
			key := strings.ToLower(a.DOI)
			if seen[key] {
				sum.Duplicates++
				log.WithField("doi", a.DOI).Debug("duplicate article dropped")
				continue
			}
			seen[key] = true
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// review returns the accepted matches. Without review every match is
// accepted. A review that ends in error keeps what was accepted so far.
func (p *Pipeline) review(ctx context.Context, cfg types.ScanConfig, matches []types.MatchResult, sum *Summary) []types.MatchResult {
	out := p.out()
	if cfg.NoReview || p.Reviewer == nil {
		fmt.Fprintf(out, "Review skipped: accepting all %d matched article(s)\n", len(matches))
		return matches
	}

	res, err := p.Reviewer.Run(ctx, matches)
	sum.Presented = res.Presented
	sum.Rejected = res.Skipped
	sum.Quit = res.Quit
	if err != nil {
		fmt.Fprintf(out, "warning: review interrupted: %v\n", err)
		p.logger().WithError(err).Warn("review interrupted")
		sum.Quit = true
	}
	return res.Accepted
}

func printSummary(w io.Writer, sum Summary) {
	fmt.Fprintf(w, "Run summary: %d fetched, %d matched, %d accepted, %d skipped journal(s)\n",
		sum.Fetched, sum.Matched, sum.Accepted, sum.SkippedJournals)
}

func (p *Pipeline) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return io.Discard
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Log != nil {
		return p.Log
	}
	return logging.Discard()
}

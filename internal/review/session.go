// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package review runs the interactive keep/skip/quit loop over matched
// articles. Input is read synchronously, one line per decision; this is the
// only place the pipeline waits on the user.
package review

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/journal-club/pkg/types"
)

// Decision is the user's response to one presented article.
type Decision int

const (
	Invalid Decision = iota
	Keep
	Skip
	Quit
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Skip:
		return "skip"
	case Quit:
		return "quit"
	default:
		return "invalid"
	}
}

// ParseDecision maps a response line to a Decision. Responses are
// case-insensitive and surrounding whitespace is ignored.
func ParseDecision(line string) Decision {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "k", "keep":
		return Keep
	case "n", "no", "s", "skip":
		return Skip
	case "q", "quit":
		return Quit
	default:
		return Invalid
	}
}

const maxAuthors = 5

// Result is the outcome of one review session.
type Result struct {
	// Accepted holds kept articles in presentation order.
	Accepted []types.MatchResult

	// Presented counts articles shown, including the one quit on.
	Presented int

	// Skipped counts articles the user rejected.
	Skipped int

	// Quit reports whether the user stopped before the end.
	Quit bool
}

// Session presents articles to the user and reads one decision per article.
type Session struct {
	in  *bufio.Reader
	out io.Writer
}

// NewSession returns a Session reading from in and writing to out.
func NewSession(in io.Reader, out io.Writer) *Session {
	return &Session{in: bufio.NewReader(in), out: out}
}

// Run presents each match in order and applies the user's decision. Quit
// stops immediately: articles not yet presented are discarded and accepted
// ones are kept. An unrecognized response re-prompts for the same article.
// End of input counts as quit. Any other read error, or cancellation of
// ctx, ends the session and is returned alongside the partial result.
func (s *Session) Run(ctx context.Context, matches []types.MatchResult) (Result, error) {
	var res Result
	if len(matches) == 0 {
		return res, nil
	}

	fmt.Fprintln(s.out, "Interactive review: y = keep, n = skip, q = quit (accepted articles are saved)")
	fmt.Fprintln(s.out)

	total := len(matches)
	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		s.present(m, i+1, total)
		res.Presented++

		d, err := s.decide(ctx)
		if err != nil {
			return res, err
		}

		switch d {
		case Keep:
			res.Accepted = append(res.Accepted, m)
			fmt.Fprintf(s.out, "  accepted (%d kept so far)\n\n", len(res.Accepted))
		case Skip:
			res.Skipped++
			fmt.Fprintf(s.out, "  skipped\n\n")
		case Quit:
			res.Quit = true
			fmt.Fprintf(s.out, "\nStopped at article %d/%d.\n", i+1, total)
			s.complete(res, total)
			return res, nil
		}
	}

	s.complete(res, total)
	return res, nil
}

// decide prompts until a recognized response arrives. Cancellation of ctx
// is noticed before each re-prompt.
func (s *Session) decide(ctx context.Context) (Decision, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Invalid, err
		}
		fmt.Fprint(s.out, "Keep this article? [y]es/[n]o/[q]uit: ")
		line, err := s.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Invalid, fmt.Errorf("reading review input: %w", err)
		}

		d := ParseDecision(line)
		if d != Invalid {
			return d, nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return Quit, nil
		}
		fmt.Fprintln(s.out, "Please answer y, n or q.")
	}
}

func (s *Session) present(m types.MatchResult, index, total int) {
	a := m.Article
	w := s.out

	fmt.Fprintf(w, "--- Article %d/%d %s\n", index, total, strings.Repeat("-", 40))
	fmt.Fprintf(w, "%-10s %s\n", "Title:", a.Title)
	fmt.Fprintf(w, "%-10s %s\n", "Journal:", a.JournalName)
	fmt.Fprintf(w, "%-10s %s\n", "Published:", orDash(a.Published.String()))
	if len(a.Authors) > 0 {
		fmt.Fprintf(w, "%-10s %s\n", "Authors:", formatAuthors(a.Authors))
	}
	abstract := a.Abstract
	if abstract == "" {
		abstract = "No abstract available."
	}
	fmt.Fprintf(w, "%-10s %s\n", "Abstract:", abstract)
	fmt.Fprintf(w, "%-10s %s\n", "Keywords:", strings.Join(m.Keywords, ", "))
	fmt.Fprintf(w, "%-10s %s\n", "Link:", orDash(a.URL))
}

func (s *Session) complete(res Result, total int) {
	fmt.Fprintf(s.out, "Review complete: %d/%d article(s) accepted\n", len(res.Accepted), total)
}

func formatAuthors(authors []string) string {
	if len(authors) <= maxAuthors {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(authors[:maxAuthors], ", "), len(authors)-maxAuthors)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

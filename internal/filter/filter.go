// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides which articles match the configured keywords.
// Matching is case-insensitive substring containment against the title and
// abstract; no stemming, tokenization or fuzzy matching.
package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/pdiddy/journal-club/pkg/types"
)

// fold returns the Unicode case folding of s. cases.Caser is stateful, so
// each call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Matches returns the keywords contained in the article's title or
// abstract, in keyword order and with the caller's spelling. An empty
// result means no match. An empty abstract only narrows the search to the
// title.
func Matches(article types.Article, keywords []string) []string {
	title := fold(article.Title)
	abstract := fold(article.Abstract)

	var matched []string
	for _, kw := range keywords {
		k := fold(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(title, k) || strings.Contains(abstract, k) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// Apply keeps the articles with at least one matching keyword, preserving
// order.
func Apply(articles []types.Article, keywords []string) []types.MatchResult {
	var results []types.MatchResult
	for _, a := range articles {
		if kws := Matches(a, keywords); len(kws) > 0 {
			results = append(results, types.MatchResult{Article: a, Keywords: kws})
		}
	}
	return results
}

// Normalize trims keywords, drops blanks and drops keywords that differ
// from an earlier one only by case. The first spelling wins.
func Normalize(keywords []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		key := fold(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, kw)
	}
	return out
}

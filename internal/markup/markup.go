// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package markup turns the HTML and JATS XML fragments CrossRef embeds in
// titles and abstracts into plain text.
package markup

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryLen = 300

// sentenceEnd matches the end of a sentence: terminal punctuation followed
// by whitespace and an uppercase letter, so "e.g. the" does not split.
var sentenceEnd = regexp.MustCompile(`[.!?]\s+[A-Z]`)

// Strip removes tags, decodes entities and collapses whitespace. Inline
// markup is removed without adding space, so "<i>E. coli</i>" and
// "H<sub>2</sub>O" read naturally in titles.
func Strip(s string) string {
	return strip(s, false)
}

// StripAbstract removes JATS/HTML markup from an abstract. Element
// boundaries become spaces so "<jats:p>a</jats:p><jats:p>b</jats:p>" reads
// "a b". JATS section titles (the leading "Abstract" heading) are dropped.
func StripAbstract(s string) string {
	return strip(s, true)
}

func strip(s string, pad bool) string {
	if !strings.ContainsAny(s, "<&") {
		return collapse(s)
	}
	if pad {
		s = strings.NewReplacer("<", " <", ">", "> ").Replace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapse(s)
	}
	if pad {
		doc.Find(`jats\:title`).Remove()
	}
	return collapse(doc.Text())
}

// Summary returns the first sentence of text, capped at 300 characters.
// Empty input yields "No abstract available.".
func Summary(text string) string {
	text = collapse(text)
	if text == "" {
		return "No abstract available."
	}

	first := text
	if loc := sentenceEnd.FindStringIndex(text); loc != nil {
		first = text[:loc[0]+1]
	}
	first = strings.TrimSpace(first)
	if !strings.ContainsAny(first[len(first)-1:], ".!?") {
		first += "."
	}

	runes := []rune(first)
	if len(runes) > maxSummaryLen {
		first = string(runes[:maxSummaryLen-3]) + "..."
	}
	return first
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

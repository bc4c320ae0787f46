// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output persists accepted articles to a results file. The format
// follows the file extension; every format is written to a temp file in
// the destination directory and renamed into place.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/journal-club/pkg/types"
)

// ErrWrite classifies every failure to produce the results file.
var ErrWrite = errors.New("output write failed")

// WriteError reports the path that could not be written and the cause.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing results to %s: %v", e.Path, e.Err)
}

// Unwrap exposes both ErrWrite and the underlying cause.
func (e *WriteError) Unwrap() []error {
	return []error{ErrWrite, e.Err}
}

// Record is the flattened form of one accepted article.
type Record struct {
	Journal   string `yaml:"journal"`
	Title     string `yaml:"title"`
	DOI       string `yaml:"doi"`
	Published string `yaml:"published"`
	Keywords  string `yaml:"keywords"`
	Abstract  string `yaml:"abstract"`
	URL       string `yaml:"url,omitempty"`
}

// Header is the fixed column order of tabular formats.
var Header = []string{"Journal", "Title", "DOI", "Published", "Keywords", "Abstract"}

const keywordSep = "; "

// NewRecord flattens a match.
func NewRecord(m types.MatchResult) Record {
	a := m.Article
	return Record{
		Journal:   a.JournalName,
		Title:     a.Title,
		DOI:       a.DOI,
		Published: a.Published.String(),
		Keywords:  strings.Join(m.Keywords, keywordSep),
		Abstract:  a.Abstract,
		URL:       a.URL,
	}
}

// Records flattens matches in order.
func Records(matches []types.MatchResult) []Record {
	records := make([]Record, len(matches))
	for i, m := range matches {
		records[i] = NewRecord(m)
	}
	return records
}

// Writer writes results files. Dir is where generated file names are
// placed (empty means the current directory). Now supplies the timestamp
// for generated names and defaults to time.Now.
type Writer struct {
	Dir string
	Now func() time.Time
}

// DefaultName returns results_<YYYY-MM-DD>_<HHMMSS>.csv for t.
func DefaultName(t time.Time) string {
	return "results_" + t.Format("2006-01-02_150405") + ".csv"
}

// Resolve returns the path Write would use for path: a generated name in
// Dir when path is empty, and an unsupported extension replaced by .csv.
func (w *Writer) Resolve(path string) string {
	if path == "" {
		return filepath.Join(w.Dir, DefaultName(w.now()))
	}
	ext := filepath.Ext(path)
	if _, ok := encoders[strings.ToLower(ext)]; ok {
		return path
	}
	return strings.TrimSuffix(path, ext) + ".csv"
}

// Write persists accepted in order and returns the path written. An
// existing file at the path is replaced. Zero records still produce a file.
// Any failure is a *WriteError and leaves no partial file behind.
func (w *Writer) Write(accepted []types.MatchResult, path string) (string, error) {
	dest := w.Resolve(path)
	enc := encoders[strings.ToLower(filepath.Ext(dest))]

	if err := writeAtomic(dest, func(f *os.File) error {
		return enc(f, Records(accepted))
	}); err != nil {
		return dest, &WriteError{Path: dest, Err: err}
	}
	return dest, nil
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// writeAtomic fills a temp file next to dest and renames it over dest.
func writeAtomic(dest string, fill func(f *os.File) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), ".results-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	fillErr := fill(tmpFile)
	if fillErr == nil {
		fillErr = tmpFile.Chmod(0o644)
	}
	closeErr := tmpFile.Close()
	if fillErr != nil {
		os.Remove(tmpPath)
		return fillErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

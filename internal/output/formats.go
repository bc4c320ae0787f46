// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/journal-club/internal/markup"
)

type encodeFunc func(f *os.File, records []Record) error

var encoders = map[string]encodeFunc{
	".csv":    writeCSV,
	".md":     writeMarkdown,
	".yaml":   writeYAML,
	".yml":    writeYAML,
	".db":     writeSQLite,
	".sqlite": writeSQLite,
}

func (r Record) row() []string {
	return []string{r.Journal, r.Title, r.DOI, r.Published, r.Keywords, r.Abstract}
}

func writeCSV(f *os.File, records []Record) error {
	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.row()); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}

// writeMarkdown renders a table with a one-sentence summary in place of
// the full abstract.
func writeMarkdown(f *os.File, records []Record) error {
	bw := bufio.NewWriter(f)

	fmt.Fprintf(bw, "# Journal club picks\n\n")
	fmt.Fprintf(bw, "%d article(s)\n\n", len(records))
	fmt.Fprintln(bw, "| Journal | Title | DOI | Published | Keywords | Summary |")
	fmt.Fprintln(bw, "|---|---|---|---|---|---|")
	for _, r := range records {
		title := mdCell(r.Title)
		if r.URL != "" {
			title = "[" + title + "](" + r.URL + ")"
		}
		fmt.Fprintf(bw, "| %s | %s | %s | %s | %s | %s |\n",
			mdCell(r.Journal), title, mdCell(r.DOI), mdCell(r.Published),
			mdCell(r.Keywords), mdCell(markup.Summary(r.Abstract)))
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing Markdown: %w", err)
	}
	return nil
}

var mdEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

func mdCell(s string) string {
	return mdEscaper.Replace(s)
}

func writeYAML(f *os.File, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing YAML: %w", err)
	}
	return nil
}

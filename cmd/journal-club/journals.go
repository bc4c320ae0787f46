package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var journalsCmd = &cobra.Command{
	Use:   "journals",
	Short: "List the configured journals and keywords",
	Long: `Journals validates the configuration and prints the journals that will be
scanned, in order, followed by the keywords and search window. Entries
dropped during validation are reported as warnings.`,
	Args: cobra.NoArgs,
	RunE: runJournals,
}

func init() {
	rootCmd.AddCommand(journalsCmd)
}

func runJournals(cmd *cobra.Command, args []string) error {
	cfg, err := loadScanConfig()
	if err != nil {
		return err
	}

	w := os.Stdout
	fmt.Fprintf(w, "%d journal(s):\n", len(cfg.Journals))
	for i, j := range cfg.Journals {
		fmt.Fprintf(w, "  %2d. %-40s %s\n", i+1, j.Name, j.ISSN)
	}
	fmt.Fprintf(w, "Keywords: %s\n", strings.Join(cfg.Keywords, ", "))
	fmt.Fprintf(w, "Search window: %d day(s)\n", cfg.SearchDays)
	if cfg.Email != "" {
		fmt.Fprintf(w, "Contact email: %s\n", cfg.Email)
	}
	return nil
}

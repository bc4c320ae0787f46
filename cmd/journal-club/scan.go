package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/journal-club/internal/config"
	"github.com/pdiddy/journal-club/internal/crossref"
	"github.com/pdiddy/journal-club/internal/output"
	"github.com/pdiddy/journal-club/internal/pipeline"
	"github.com/pdiddy/journal-club/internal/review"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch, filter and review recent articles",
	Long: `Scan fetches the articles each configured journal published in the search
window, keeps those matching a keyword, and presents them one by one:
answer y to keep, n to skip, q to stop reviewing. Kept articles are saved
when the review ends. A journal that cannot be fetched is reported and
skipped; the rest of the run continues.

With --no-review every matching article is saved without prompting.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Int("days", 0, "search window in days (default from config, 30)")
	scanCmd.Flags().StringP("output", "o", "", "results file; extension selects .csv, .md, .yaml or .db (default results_<date>_<time>.csv)")
	scanCmd.Flags().Bool("no-review", false, "accept every match without prompting")
	scanCmd.Flags().Int("rows", 0, "CrossRef page size (default from config, 100)")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("days") {
		days, _ := cmd.Flags().GetInt("days")
		cfgViper.Set(config.KeySearchDays, days)
	}
	if cmd.Flags().Changed("rows") {
		rows, _ := cmd.Flags().GetInt("rows")
		cfgViper.Set(config.KeyRows, rows)
	}

	cfg, err := loadScanConfig()
	if err != nil {
		return err
	}
	cfg.OutputPath, _ = cmd.Flags().GetString("output")
	cfg.NoReview, _ = cmd.Flags().GetBool("no-review")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			// A second interrupt terminates immediately.
			stop()
			fmt.Fprintln(os.Stderr, "\ninterrupted: finishing the current step, press Ctrl-C again to abort")
		case <-done:
		}
	}()

	client := crossref.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg, runLog)
	p := &pipeline.Pipeline{
		Source:   client,
		Reviewer: review.NewSession(os.Stdin, os.Stdout),
		Writer:   &output.Writer{},
		Out:      os.Stdout,
		Log:      runLog,
	}

	_, err = p.Run(ctx, cfg)
	return err
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the journal-club CLI. It scans the
// configured journals on CrossRef for recent articles that mention the
// configured keywords, lets the user pick the ones worth discussing, and
// saves the picks to a results file.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/journal-club/internal/config"
	"github.com/pdiddy/journal-club/internal/logging"
	"github.com/pdiddy/journal-club/internal/secrets"
	"github.com/pdiddy/journal-club/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfgViper holds the file and environment settings read at startup.
	cfgViper *viper.Viper

	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// runLog is the diagnostic logger for this invocation, tagged with a
	// run id.
	runLog *logrus.Entry
)

// rootCmd is the base command for the journal-club CLI.
var rootCmd = &cobra.Command{
	Use:   "journal-club",
	Short: "Find recent journal articles worth discussing",
	Long: `journal-club fetches the articles each configured journal published in
the last N days from CrossRef, keeps those whose title or abstract mentions
one of the configured keywords, and walks through them one at a time so you
can keep or skip each. Kept articles are written to a results file (CSV by
default; .md, .yaml and .db are also supported).

Configuration is read from ./journal-club.yaml or
~/.config/journal-club/config.yaml; JOURNAL_CLUB_* environment variables and
a .env file override it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env"); err != nil {
			return err
		}

		cfgFile, _ := cmd.Flags().GetString("config")
		v, used, err := config.New(cfgFile, version)
		if err != nil {
			return err
		}
		if err := v.BindPFlag(config.KeyLogLevel, cmd.Flags().Lookup("log-level")); err != nil {
			return fmt.Errorf("binding log level: %w", err)
		}
		cfgViper = v

		runLog = logging.ForRun(logging.New(v.GetString(config.KeyLogLevel)))
		if used != "" {
			fmt.Fprintln(os.Stderr, "Using config file:", used)
		}

		s, err := secrets.Load(secrets.DefaultDir, runLog)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", secrets.Names(s))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./journal-club.yaml or ~/.config/journal-club/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", logging.DefaultLevel, "diagnostic log level: trace, debug, info, warn or error")
}

// loadScanConfig validates the startup configuration and prints the
// warnings for journal entries that were dropped.
func loadScanConfig() (types.ScanConfig, error) {
	cfg, warnings, err := config.Load(cfgViper, loadedSecrets)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return cfg, err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

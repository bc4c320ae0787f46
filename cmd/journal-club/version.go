// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/journal-club/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build, User-Agent and CrossRef contact status",
	RunE: func(cmd *cobra.Command, args []string) error {
		writeVersion(cmd.OutOrStdout(), cfgViper, loadedSecrets)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// writeVersion prints the build and how requests to CrossRef will identify
// themselves. The contact address itself is not printed.
func writeVersion(w io.Writer, v *viper.Viper, secrets map[string]string) {
	ua := config.UserAgent(version)
	var email string
	if v != nil {
		if s := strings.TrimSpace(v.GetString(config.KeyUserAgent)); s != "" {
			ua = s
		}
		email = strings.TrimSpace(v.GetString(config.KeyEmail))
	}

	contact := "not set (anonymous pool)"
	switch {
	case email != "":
		contact = "set (polite pool)"
	case secrets[config.EmailSecret] != "":
		contact = "set from " + config.EmailSecret + " secret (polite pool)"
	}

	fmt.Fprintf(w, "journal-club %s\n", version)
	fmt.Fprintf(w, "  go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "  user agent: %s\n", ua)
	fmt.Fprintf(w, "  contact:    %s\n", contact)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves the scan configuration from a YAML file,
// JOURNAL_CLUB_* environment variables, an optional .env file and the
// .secrets directory, then validates it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/pdiddy/journal-club/internal/crossref"
	"github.com/pdiddy/journal-club/internal/filter"
	"github.com/pdiddy/journal-club/pkg/types"
)

const (
	// Name is the config file base name searched in the working directory.
	Name = "journal-club"

	// EnvPrefix prefixes environment overrides (JOURNAL_CLUB_EMAIL, ...).
	EnvPrefix = "JOURNAL_CLUB"

	// EmailSecret is the secrets file holding the CrossRef contact address.
	EmailSecret = "crossref-email"

	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
)

// Keys recognized in the config file.
const (
	KeyJournals   = "journals"
	KeyKeywords   = "keywords"
	KeySearchDays = "search_days"
	KeyEmail      = "email"
	KeyRows       = "rows"
	KeyMaxResults = "max_results"
	KeyTimeout    = "timeout"
	KeyMaxRetries = "max_retries"
	KeyUserAgent  = "user_agent"
	KeyLogLevel   = "log_level"
)

// Error reports a configuration that cannot be used. It is returned before
// any request is made.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// UserAgent returns the User-Agent sent by the given build, e.g.
// journal-club/1.2.0. An empty version reads as dev.
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return Name + "/" + version
}

// SetDefaults registers default values on v. version is the running build
// and feeds the default User-Agent.
func SetDefaults(v *viper.Viper, version string) {
	v.SetDefault(KeySearchDays, types.DefaultSearchDays)
	v.SetDefault(KeyRows, crossref.DefaultRows)
	v.SetDefault(KeyMaxResults, 0)
	v.SetDefault(KeyTimeout, defaultTimeout)
	v.SetDefault(KeyMaxRetries, defaultMaxRetries)
	v.SetDefault(KeyUserAgent, UserAgent(version))
}

// New returns a viper instance with defaults and environment overrides and
// reads the config file. version is the running build. cfgFile selects an
// explicit file; otherwise ./journal-club.yaml and
// ~/.config/journal-club/config.yaml are searched and a missing file is not
// an error. The returned path is the file read, or empty.
func New(cfgFile, version string) (*viper.Viper, string, error) {
	v := viper.New()
	SetDefaults(v, version)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			if err := readHomeConfig(v); err != nil {
				return nil, "", err
			}
			return v, v.ConfigFileUsed(), nil
		}
		return nil, "", &Error{Problems: []string{fmt.Sprintf("reading config file: %v", err)}}
	}
	return v, v.ConfigFileUsed(), nil
}

// readHomeConfig reads ~/.config/journal-club/config.yaml when present.
// Viper only searches for the base name journal-club, so the home file is
// read separately.
func readHomeConfig(v *viper.Viper) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".config", Name, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return &Error{Problems: []string{fmt.Sprintf("reading config file: %v", err)}}
	}
	return nil
}

// LoadDotEnv loads KEY=value pairs from path into the process environment
// without overriding variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load builds and validates a ScanConfig from v. Secrets supply the email
// when neither the file nor the environment sets one. Journal entries that
// lack a name or carry an invalid ISSN are dropped and described in the
// returned warnings. A configuration without journals or keywords, or with
// a non-positive search window, is an *Error.
func Load(v *viper.Viper, secrets map[string]string) (types.ScanConfig, []string, error) {
	var problems []string
	journals, warnings := decodeJournals(v.Get(KeyJournals))

	cfg := types.ScanConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:    v.GetDuration(KeyTimeout),
			UserAgent:  strings.TrimSpace(v.GetString(KeyUserAgent)),
			MaxRetries: v.GetInt(KeyMaxRetries),
		},
		Journals:   journals,
		Keywords:   filter.Normalize(stringList(v.Get(KeyKeywords))),
		SearchDays: v.GetInt(KeySearchDays),
		Email:      strings.TrimSpace(v.GetString(KeyEmail)),
		Rows:       v.GetInt(KeyRows),
		MaxResults: v.GetInt(KeyMaxResults),
	}
	if cfg.Email == "" {
		cfg.Email = secrets[EmailSecret]
	}

	if len(cfg.Journals) == 0 {
		problems = append(problems, "no valid journals configured")
	}
	if len(cfg.Keywords) == 0 {
		problems = append(problems, "no keywords configured")
	}
	if cfg.SearchDays < 1 {
		problems = append(problems, fmt.Sprintf("search_days must be at least 1, got %d", cfg.SearchDays))
	}
	if cfg.Rows < 1 {
		problems = append(problems, fmt.Sprintf("rows must be at least 1, got %d", cfg.Rows))
	}
	if cfg.MaxResults < 0 {
		problems = append(problems, fmt.Sprintf("max_results must not be negative, got %d", cfg.MaxResults))
	}
	if cfg.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("timeout must be positive, got %s", cfg.Timeout))
	}
	if cfg.MaxRetries < 1 {
		problems = append(problems, fmt.Sprintf("max_retries must be at least 1, got %d", cfg.MaxRetries))
	}

	if len(problems) > 0 {
		return cfg, warnings, &Error{Problems: problems}
	}
	return cfg, warnings, nil
}

// decodeJournals converts the raw journals list. Entries are maps with name
// and issn keys; a bare string is taken as an ISSN and named after itself.
func decodeJournals(raw any) ([]types.JournalSpec, []string) {
	if raw == nil {
		return nil, nil
	}
	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, []string{fmt.Sprintf("journals: expected a list, got %T", raw)}
	}

	var (
		journals []types.JournalSpec
		warnings []string
		seen     = make(map[string]int)
	)
	for i, item := range items {
		pos := i + 1

		var name, rawISSN string
		if s, ok := item.(string); ok {
			name, rawISSN = s, s
		} else {
			m, err := cast.ToStringMapE(item)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("journal entry %d: expected name and issn, got %T", pos, item))
				continue
			}
			name = strings.TrimSpace(cast.ToString(m["name"]))
			rawISSN = strings.TrimSpace(cast.ToString(m["issn"]))
		}

		if name == "" {
			warnings = append(warnings, fmt.Sprintf("journal entry %d: missing name", pos))
			continue
		}
		issn, ok := crossref.NormalizeISSN(rawISSN)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("journal %q: invalid ISSN %q", name, rawISSN))
			continue
		}
		if first, dup := seen[issn]; dup {
			warnings = append(warnings, fmt.Sprintf("journal %q: ISSN %s already listed as entry %d", name, issn, first))
			continue
		}
		seen[issn] = pos
		journals = append(journals, types.JournalSpec{Name: name, ISSN: issn})
	}
	return journals, warnings
}

// stringList accepts a YAML list or a comma-separated string, the form an
// environment variable takes.
func stringList(raw any) []string {
	if s, ok := raw.(string); ok {
		return strings.Split(s, ",")
	}
	return cast.ToStringSlice(raw)
}

//go:build mage

// Package main contains Mage build targets for journal-club developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "journal-club"
	cmdPkg     = "./cmd/journal-club"
	configFile = "journal-club.yaml"
	secretsDir = ".secrets"
)

// sampleConfig is written by Init when no config file exists.
const sampleConfig = `# journal-club configuration
journals:
  - name: Nature
    issn: 0028-0836
  - name: Science
    issn: 0036-8075
  - name: Cell
    issn: 0092-8674
keywords:
  - CRISPR
  - single-cell
search_days: 30
# email: you@example.org
rows: 100
max_results: 0
timeout: 30s
max_retries: 3
`

// Init writes a sample journal-club.yaml and creates the .secrets directory.
// An existing config file is left alone.
func Init() error {
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("  %s already exists, not overwritten\n", configFile)
	} else {
		if err := os.WriteFile(configFile, []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", configFile, err)
		}
		fmt.Println("  ", configFile)
	}

	if err := os.MkdirAll(secretsDir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", secretsDir, err)
	}
	fmt.Println("  ", secretsDir)
	fmt.Println("Project initialized. Put your CrossRef contact address in .secrets/crossref-email.")
	return nil
}

// Build compiles the CLI binary into bin/, stamping the version from git
// when available.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint runs go vet over every package.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// All lints, tests and builds.
func All() {
	mg.SerialDeps(Lint, Test, Build)
}

// Stats prints project metrics: Go production and test line counts per
// package directory.
func Stats() error {
	prod, test, err := countGoLines(".")
	if err != nil {
		return err
	}

	var total, totalTest int
	for _, dir := range sortedKeys(prod, test) {
		fmt.Printf("  %-28s %6d prod %6d test\n", dir, prod[dir], test[dir])
		total += prod[dir]
		totalTest += test[dir]
	}
	fmt.Printf("Lines of code (Go, production): %d\n", total)
	fmt.Printf("Lines of code (Go, tests):      %d\n", totalTest)
	return nil
}

// countGoLines counts non-blank lines of Go files below root, keyed by
// directory. Directories starting with "." or "_" are skipped.
func countGoLines(root string) (prod, test map[string]int, err error) {
	prod = make(map[string]int)
	test = make(map[string]int)
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(name) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := nonBlankLines(data)
		dir := filepath.Dir(path)
		if strings.HasSuffix(name, "_test.go") {
			test[dir] += n
		} else {
			prod[dir] += n
		}
		return nil
	})
	return prod, test, err
}

func nonBlankLines(data []byte) int {
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n
}

func sortedKeys(maps ...map[string]int) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/arpanb/emissary/internal/defaults"
)

// runInit initializes an Emissary working directory with default files.
// It creates the data directory and copies bundled examples for config,
// summary, and profile. Existing files are never overwritten.
func runInit(w io.Writer, dir string) error {
	fmt.Fprintf(w, "Initializing Emissary workspace in %s\n", dir)

	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	files := []struct {
		name    string
		content []byte
	}{
		{"config.yaml", defaults.ConfigYAML},
		{"summary.txt", defaults.SummaryTxt},
		{"profile.md", defaults.ProfileMD},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeIfMissing(path, f.content); err != nil {
			return err
		}
		fmt.Fprintf(w, "  ✓ %s\n", path)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Edit config.yaml, summary.txt, and profile.md, then run: emissary serve")
	return nil
}

// writeIfMissing writes content to path only if the file does not already
// exist. This ensures init never overwrites user customizations.
func writeIfMissing(path string, content []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil // already exists, skip
	}
	return os.WriteFile(path, content, 0o644)
}

// Package persona loads the grounding context the agent speaks from.
package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Identity is the person the agent represents, with the background
// material used to ground every prompt. Immutable after Load; safe for
// concurrent reads across turns.
type Identity struct {
	Name    string
	Summary string
	Profile string
}

// Load reads the summary and profile files. The summary is plain text.
// The profile is read verbatim for .txt/.md files; .html/.htm files are
// reduced to readable text first. Any read failure is fatal — the agent
// must not serve conversations without grounding context.
func Load(name, summaryPath, profilePath string) (*Identity, error) {
	if name == "" {
		return nil, fmt.Errorf("persona name is required")
	}

	summary, err := os.ReadFile(summaryPath)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}

	profile, err := loadProfile(profilePath)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	id := &Identity{
		Name:    name,
		Summary: strings.TrimSpace(string(summary)),
		Profile: profile,
	}
	if id.Summary == "" {
		return nil, fmt.Errorf("summary file %s is empty", summaryPath)
	}
	if id.Profile == "" {
		return nil, fmt.Errorf("profile file %s is empty", profilePath)
	}
	return id, nil
}

func loadProfile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ExtractHTML(string(data)), nil
	default:
		return strings.TrimSpace(string(data)), nil
	}
}

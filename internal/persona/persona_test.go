package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadPlainText(t *testing.T) {
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.txt", "Software engineer with 10 years experience.\n")
	profile := writeFile(t, dir, "profile.md", "# Experience\n\nSenior engineer at Acme.\n")

	id, err := Load("Arpan Bandyopadhyay", summary, profile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if id.Name != "Arpan Bandyopadhyay" {
		t.Errorf("Name = %q", id.Name)
	}
	if id.Summary != "Software engineer with 10 years experience." {
		t.Errorf("Summary = %q", id.Summary)
	}
	if !strings.Contains(id.Profile, "Senior engineer at Acme.") {
		t.Errorf("Profile = %q", id.Profile)
	}
}

func TestLoadHTMLProfile(t *testing.T) {
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.txt", "summary")
	profile := writeFile(t, dir, "profile.html", `<html>
<head><title>Profile</title><script>alert("x")</script></head>
<body>
  <nav>Home | About</nav>
  <h1>Arpan Bandyopadhyay</h1>
  <p>Engineering leader.</p>
  <ul><li>Go</li><li>Distributed systems</li></ul>
  <footer>© 2026</footer>
</body>
</html>`)

	id, err := Load("Arpan", summary, profile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	for _, want := range []string{"Arpan Bandyopadhyay", "Engineering leader.", "Go", "Distributed systems"} {
		if !strings.Contains(id.Profile, want) {
			t.Errorf("Profile missing %q:\n%s", want, id.Profile)
		}
	}
	for _, absent := range []string{"alert", "Home | About", "© 2026"} {
		if strings.Contains(id.Profile, absent) {
			t.Errorf("Profile should not contain %q:\n%s", absent, id.Profile)
		}
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	summary := writeFile(t, dir, "summary.txt", "x")
	profile := writeFile(t, dir, "profile.txt", "y")
	empty := writeFile(t, dir, "empty.txt", "  \n")

	tests := []struct {
		name                   string
		agent, summaryP, profP string
	}{
		{name: "missing summary", agent: "A", summaryP: filepath.Join(dir, "nope.txt"), profP: profile},
		{name: "missing profile", agent: "A", summaryP: summary, profP: filepath.Join(dir, "nope.txt")},
		{name: "empty name", agent: "", summaryP: summary, profP: profile},
		{name: "empty summary", agent: "A", summaryP: empty, profP: profile},
		{name: "empty profile", agent: "A", summaryP: summary, profP: empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.agent, tt.summaryP, tt.profP); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExtractHTMLMalformed(t *testing.T) {
	// html.Parse is lenient; even fragments should yield their text.
	got := ExtractHTML("<p>hello <b>world")
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") {
		t.Errorf("ExtractHTML() = %q", got)
	}
}

func TestCleanWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "collapse spaces", input: "a   b\tc", want: "a b c"},
		{name: "collapse blank lines", input: "a\n\n\n\nb", want: "a\n\nb"},
		{name: "trim", input: "  \n a \n  ", want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanWhitespace(tt.input); got != tt.want {
				t.Errorf("cleanWhitespace(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

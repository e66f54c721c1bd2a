package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, &out, []string{"version"}); err != nil {
		t.Fatalf("run(version) error: %v", err)
	}
	if !strings.Contains(out.String(), "Emissary") {
		t.Errorf("version output missing name: %q", out.String())
	}
}

func TestRunVersionJSON(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, &out, []string{"-o", "json", "version"}); err != nil {
		t.Fatalf("run(-o json version) error: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("version output is not JSON: %v", err)
	}
	if info["version"] == "" {
		t.Error("version field missing")
	}
}

func TestRunUsage(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), &out, &out, nil); err != nil {
		t.Fatalf("run() error: %v", err)
	}
	if !strings.Contains(out.String(), "Usage: emissary") {
		t.Errorf("usage output = %q", out.String())
	}
}

func TestRunArgErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"frobnicate"}},
		{"unknown flag", []string{"-bogus"}},
		{"bad output format", []string{"-o", "xml", "version"}},
		{"ask without question", []string{"ask"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), &out, &out, tt.args); err == nil {
				t.Error("expected error")
			}
		})
	}
}

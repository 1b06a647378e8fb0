package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newConfigInitCommand()
	cmd.SetArgs([]string{"--path", target})
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[mail]") {
		t.Fatalf("sample missing mail section:\n%s", data)
	}

	// A second init without --overwrite must refuse.
	cmd = newConfigInitCommand()
	cmd.SetArgs([]string{"--path", target})
	cmd.SetOut(&out)
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for existing config")
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("short", 10); got != "short" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	got := truncateCell("a very long newsletter subject line", 10)
	if len([]rune(got)) != 10 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

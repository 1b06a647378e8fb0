package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleEntry() Entry {
	return Entry{
		DocumentID: "msg-1",
		Title:      "Weekly AI Digest!",
		Digest:     "Short digest.",
		Score:      80,
		Tags:       []string{"ai"},
		Insights:   []string{"insight one"},
		Links:      []string{"https://example.com"},
		Sender:     "news@example.com",
		Date:       time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Content:    "Body text.",
	}
}

func TestWriteMarkdown(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, FormatMarkdown)

	path, err := writer.Write(sampleEntry())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := filepath.Join(dir, "2026", "08", "2026-08-20-weekly-ai-digest.md"); path != want {
		t.Fatalf("unexpected path: %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"---", `title: "Weekly AI Digest!"`, "score: 80", "## Key Insights", "Body text."} {
		if !strings.Contains(content, want) {
			t.Fatalf("markdown missing %q:\n%s", want, content)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, FormatJSON)

	path, err := writer.Write(sampleEntry())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Fatalf("expected json file, got %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Entry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Title != "Weekly AI Digest!" || decoded.Score != 80 {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":  "hello-world",
		"  ":             "untitled",
		"éclair--recipe": "clair-recipe",
	}
	for input, want := range cases {
		if got := slugify(input); got != want {
			t.Fatalf("slugify(%q): want %q, got %q", input, want, got)
		}
	}
}

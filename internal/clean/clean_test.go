package clean

import (
	"strings"
	"testing"
)

func TestNormalizePlainTextPassthrough(t *testing.T) {
	n := NewNormalizer(0)
	got := n.Normalize("just plain text\n\n\n\nwith gaps")
	if got != "just plain text\n\nwith gaps" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(0)
	if got := n.Normalize("   "); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestNormalizeStripsScriptsAndHidden(t *testing.T) {
	n := NewNormalizer(0)
	html := `<html><body>
		<script>alert("x")</script>
		<div style="display: none">secret tracking</div>
		<p>Visible content.</p>
	</body></html>`
	got := n.Normalize(html)
	if strings.Contains(got, "alert") || strings.Contains(got, "secret tracking") {
		t.Fatalf("hidden content leaked: %q", got)
	}
	if !strings.Contains(got, "Visible content.") {
		t.Fatalf("visible content missing: %q", got)
	}
}

func TestNormalizeStripsTrackingPixels(t *testing.T) {
	n := NewNormalizer(0)
	html := `<body><img src="https://t.example/open.gif" width="1" height="1"><p>Body</p></body>`
	got := n.Normalize(html)
	if strings.Contains(got, "open.gif") {
		t.Fatalf("tracking pixel survived: %q", got)
	}
}

func TestNormalizeConvertsMarkup(t *testing.T) {
	n := NewNormalizer(0)
	got := n.Normalize(`<body><h1>Title</h1><p>Some <strong>bold</strong> text.</p></body>`)
	if !strings.Contains(got, "# Title") {
		t.Fatalf("heading not converted: %q", got)
	}
	if !strings.Contains(got, "**bold**") {
		t.Fatalf("bold not converted: %q", got)
	}
}

func TestNormalizeDropsNoiseLines(t *testing.T) {
	n := NewNormalizer(0)
	input := "Real content here.\nUnsubscribe from this list\nView this email in your browser\nMore content."
	got := n.Normalize(input)
	if strings.Contains(strings.ToLower(got), "unsubscribe") || strings.Contains(got, "browser") {
		t.Fatalf("noise lines survived: %q", got)
	}
	if !strings.Contains(got, "Real content here.") || !strings.Contains(got, "More content.") {
		t.Fatalf("content lines dropped: %q", got)
	}
}

func TestNormalizeTruncatesLongContent(t *testing.T) {
	n := NewNormalizer(1000)
	input := strings.Repeat("a", 600) + "MIDDLE" + strings.Repeat("z", 600)
	got := n.Normalize(input)
	if !strings.Contains(got, "[... content truncated ...]") {
		t.Fatalf("expected truncation marker: %d chars", len(got))
	}
	if !strings.HasPrefix(got, "aaa") || !strings.HasSuffix(got, "zzz") {
		t.Fatalf("head and tail must both survive truncation")
	}
}

func TestExtractURLs(t *testing.T) {
	text := `Read https://example.com/article and https://example.com/article again.
Unsubscribe: https://news.example/unsubscribe?u=1
Pixel: https://t.example/track/open.gif`
	urls := ExtractURLs(text, 10)
	if len(urls) != 1 {
		t.Fatalf("expected 1 url, got %v", urls)
	}
	if urls[0] != "https://example.com/article" {
		t.Fatalf("unexpected url: %q", urls[0])
	}
}

func TestExtractURLsLimit(t *testing.T) {
	text := "https://a.test/1 https://a.test/2 https://a.test/3"
	urls := ExtractURLs(text, 2)
	if len(urls) != 2 {
		t.Fatalf("expected limit of 2, got %v", urls)
	}
}

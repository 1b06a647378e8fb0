// Package localstore writes published gists to the local filesystem as
// a fallback and archive alongside the remote destination.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Format selects the on-disk representation.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Entry is one gist to persist.
type Entry struct {
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title"`
	Digest     string    `json:"digest"`
	Score      int       `json:"score"`
	Tags       []string  `json:"tags"`
	Insights   []string  `json:"insights"`
	Links      []string  `json:"links"`
	Sender     string    `json:"sender"`
	Date       time.Time `json:"date"`
	Content    string    `json:"content"`
}

// Writer persists entries under a date-partitioned directory tree.
type Writer struct {
	baseDir string
	format  Format
}

// NewWriter constructs a writer rooted at baseDir.
func NewWriter(baseDir string, format Format) *Writer {
	if format != FormatJSON {
		format = FormatMarkdown
	}
	return &Writer{baseDir: baseDir, format: format}
}

// Write persists the entry and returns the file path.
func (w *Writer) Write(entry Entry) (string, error) {
	date := entry.Date
	if date.IsZero() {
		date = time.Now()
	}
	dir := filepath.Join(w.baseDir, date.Format("2006"), date.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s", date.Format("2006-01-02"), slugify(entry.Title))
	var path string
	var data []byte
	var err error
	switch w.format {
	case FormatJSON:
		path = filepath.Join(dir, name+".json")
		data, err = json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode entry: %w", err)
		}
	default:
		path = filepath.Join(dir, name+".md")
		data = []byte(renderMarkdown(entry))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write entry: %w", err)
	}
	return path, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	const limit = 60
	if len(slug) > limit {
		slug = strings.Trim(slug[:limit], "-")
	}
	return slug
}

func renderMarkdown(entry Entry) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", entry.Title)
	fmt.Fprintf(&b, "document_id: %q\n", entry.DocumentID)
	fmt.Fprintf(&b, "sender: %q\n", entry.Sender)
	fmt.Fprintf(&b, "score: %d\n", entry.Score)
	if !entry.Date.IsZero() {
		fmt.Fprintf(&b, "date: %s\n", entry.Date.Format(time.RFC3339))
	}
	if len(entry.Tags) > 0 {
		b.WriteString("tags:\n")
		for _, tag := range entry.Tags {
			fmt.Fprintf(&b, "  - %q\n", tag)
		}
	}
	b.WriteString("---\n\n")

	if entry.Digest != "" {
		b.WriteString(entry.Digest)
		b.WriteString("\n\n")
	}
	if len(entry.Insights) > 0 {
		b.WriteString("## Key Insights\n\n")
		for _, insight := range entry.Insights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
		b.WriteString("\n")
	}
	if len(entry.Links) > 0 {
		b.WriteString("## Mentioned Links\n\n")
		for _, link := range entry.Links {
			fmt.Fprintf(&b, "- <%s>\n", link)
		}
		b.WriteString("\n")
	}
	if entry.Content != "" {
		b.WriteString("## Original Content\n\n")
		b.WriteString(entry.Content)
		b.WriteString("\n")
	}
	return b.String()
}

package notes

import (
	"strings"
	"time"
)

// Destination limits. Values outside them are rejected by the API, so
// the client trims header fields before sending.
const (
	maxTitleLen   = 100
	maxSummaryLen = 2000
	maxTags       = 10
	maxURLLen     = 2000
)

// PageHeader carries the properties set when the remote page is created.
type PageHeader struct {
	Title   string
	Summary string
	Score   int
	Tags    []string
	Source  string
	Date    time.Time
	Link    string
}

// normalized returns a copy with every field trimmed to the destination
// limits. Content is clipped here rather than failing the publish, since
// header fields are summaries and safe to shorten.
func (h PageHeader) normalized() PageHeader {
	out := h
	out.Title = clipRunes(strings.TrimSpace(h.Title), maxTitleLen)
	if out.Title == "" {
		out.Title = "Untitled"
	}
	out.Summary = clipRunes(strings.TrimSpace(h.Summary), maxSummaryLen)
	out.Link = clipRunes(strings.TrimSpace(h.Link), maxURLLen)
	if len(h.Tags) > maxTags {
		out.Tags = h.Tags[:maxTags]
	}
	return out
}

func clipRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

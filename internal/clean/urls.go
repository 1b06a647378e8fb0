package clean

import (
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"')\]]+`)

// skipURLMarkers identify unsubscribe and tracking links that carry no
// content value.
var skipURLMarkers = []string{
	"unsubscribe",
	"email-preferences",
	"manage-preferences",
	"list-manage",
	"click.e.",
	"track",
	"pixel",
	"beacon",
	"mailto:",
}

// ExtractURLs returns the distinct content URLs found in the text, in
// order of first appearance, skipping unsubscribe and tracking links.
func ExtractURLs(text string, limit int) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	var urls []string
	for _, match := range matches {
		cleaned := strings.TrimRight(match, ".,;:")
		if skipURL(cleaned) {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		urls = append(urls, cleaned)
		if limit > 0 && len(urls) >= limit {
			break
		}
	}
	return urls
}

func skipURL(url string) bool {
	lowered := strings.ToLower(url)
	for _, marker := range skipURLMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

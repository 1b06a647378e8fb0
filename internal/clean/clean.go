// Package clean normalizes raw newsletter HTML into markdown suitable
// for block transformation. Cleaning is best-effort and total: inputs
// that defeat the HTML pipeline degrade to extracted plain text rather
// than erroring.
package clean

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Newsletters occasionally carry megabytes of markup noise; cleaned
// output is bounded, keeping the head and tail where the signal lives.
const defaultMaxChars = 50000

// Normalizer converts raw message content to cleaned markdown text.
type Normalizer struct {
	converter *md.Converter
	maxChars  int
}

// noiseLine matches boilerplate lines stripped from the cleaned output.
var noiseLine = regexp.MustCompile(`(?i)^\s*(unsubscribe|view (this email )?in (your )?browser|update your preferences|manage (your )?subscription|sent (to|from) .*|no longer want to receive|forward to a friend|add us to your address book)\b.*$`)

// NewNormalizer constructs a normalizer. maxChars bounds the cleaned
// output; zero applies the default bound.
func NewNormalizer(maxChars int) *Normalizer {
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	converter := md.NewConverter("", true, nil)
	return &Normalizer{converter: converter, maxChars: maxChars}
}

// Normalize converts raw HTML (or plain text) into cleaned markdown.
func (n *Normalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "<") {
		return n.finish(raw)
	}

	stripped, err := stripNoise(raw)
	if err != nil {
		stripped = raw
	}
	text, err := n.converter.ConvertString(stripped)
	if err != nil || strings.TrimSpace(text) == "" {
		text = extractText(stripped)
	}
	return n.finish(text)
}

func (n *Normalizer) finish(text string) string {
	text = dropNoiseLines(text)
	text = normalizeWhitespace(text)
	return truncate(text, n.maxChars)
}

// stripNoise removes scripts, styles, hidden elements, and tracking
// pixels before markdown conversion.
func stripNoise(raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe, head").Remove()
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		compact := strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden") {
			sel.Remove()
		}
	})
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if isTrackingPixel(sel) {
			sel.Remove()
		}
	})
	return doc.Html()
}

func isTrackingPixel(sel *goquery.Selection) bool {
	width, _ := sel.Attr("width")
	height, _ := sel.Attr("height")
	if isTinyDimension(width) || isTinyDimension(height) {
		return true
	}
	src, _ := sel.Attr("src")
	src = strings.ToLower(src)
	for _, marker := range []string{"track", "pixel", "beacon", "open.gif", "spacer"} {
		if strings.Contains(src, marker) {
			return true
		}
	}
	return false
}

func isTinyDimension(value string) bool {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), "px")
	return trimmed == "0" || trimmed == "1"
}

// extractText is the plain-text fallback when markdown conversion fails.
func extractText(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return doc.Text()
}

func dropNoiseLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if noiseLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

var multiBlank = regexp.MustCompile(`\n{3,}`)

func normalizeWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = multiBlank.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncate keeps the head and tail of over-long content with a marker
// between them, preserving the parts most likely to carry signal.
func truncate(text string, maxChars int) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	head := maxChars * 3 / 4
	tail := maxChars - head
	return string(runes[:head]) + "\n\n[... content truncated ...]\n\n" + string(runes[len(runes)-tail:])
}

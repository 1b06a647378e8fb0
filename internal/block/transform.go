package block

import (
	"strings"
)

// Transform converts cleaned markdown text into an ordered block
// sequence. It never fails: unrecognized markup degrades to literal
// paragraph text.
func Transform(text string) []Block {
	units := splitUnits(text)
	var blocks []Block
	for _, unit := range units {
		blocks = append(blocks, classifyUnit(unit)...)
	}
	return blocks
}

// splitUnits discards table-separator lines, then splits the input on
// blank-line boundaries.
func splitUnits(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isTableSeparator(line) {
			continue
		}
		kept = append(kept, line)
	}

	var units []string
	var current []string
	for _, line := range kept {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				units = append(units, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		units = append(units, strings.Join(current, "\n"))
	}
	return units
}

// isTableSeparator reports whether the line is a markdown table ruling:
// nothing but pipes, dashes, colons, and spaces, and long enough that it
// cannot be a thematic break.
func isTableSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) <= 3 {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '|', '-', ':', ' ':
		default:
			return false
		}
	}
	return true
}

func classifyUnit(unit string) []Block {
	trimmed := strings.TrimSpace(unit)
	switch {
	case trimmed == "---":
		return []Block{{Kind: KindDivider}}
	case strings.HasPrefix(trimmed, "#"):
		return headingBlocks(trimmed)
	case strings.HasPrefix(trimmed, "```"):
		return codeBlocks(trimmed)
	case hasBulletLine(unit):
		return listBlocks(unit, KindBullet, bulletText)
	case hasNumberedLine(unit):
		return listBlocks(unit, KindNumbered, numberedText)
	default:
		return FromRuns(KindParagraph, 0, parseInline(unit))
	}
}

func headingBlocks(unit string) []Block {
	line := unit
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	text := strings.TrimSpace(line[level:])
	if text == "" {
		return nil
	}
	if level > 3 {
		level = 3
	}
	return FromRuns(KindHeading, level, parseInline(text))
}

func codeBlocks(unit string) []Block {
	lines := strings.Split(unit, "\n")
	// Strip the opening fence (and its info string) and a trailing fence.
	body := lines[1:]
	if len(body) > 0 && strings.HasPrefix(strings.TrimSpace(body[len(body)-1]), "```") {
		body = body[:len(body)-1]
	}
	text := strings.Join(body, "\n")
	if text == "" {
		return []Block{{Kind: KindCode}}
	}
	var blocks []Block
	for _, chunk := range splitRunes(text, MaxUnitLen) {
		blocks = append(blocks, Block{Kind: KindCode, Text: chunk})
	}
	return blocks
}

func hasBulletLine(unit string) bool {
	line := firstLine(unit)
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")
}

func hasNumberedLine(unit string) bool {
	return numberedText(firstLine(unit)) != ""
}

func firstLine(unit string) string {
	trimmed := strings.TrimSpace(unit)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		return strings.TrimSpace(trimmed[:idx])
	}
	return trimmed
}

func bulletText(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return strings.TrimSpace(trimmed[2:])
	}
	return ""
}

// numberedText strips an "N. " ordinal prefix, returning "" when the
// line carries no ordinal.
func numberedText(line string) string {
	trimmed := strings.TrimSpace(line)
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(trimmed) || trimmed[i] != '.' || trimmed[i+1] != ' ' {
		return ""
	}
	return strings.TrimSpace(trimmed[i+2:])
}

// listBlocks emits one item per marked line. Unmarked continuation
// lines attach to the preceding item.
func listBlocks(unit string, kind Kind, itemText func(string) string) []Block {
	var blocks []Block
	var pending string
	flush := func() {
		if pending != "" {
			blocks = append(blocks, FromRuns(kind, 0, parseInline(pending))...)
			pending = ""
		}
	}
	for _, line := range strings.Split(unit, "\n") {
		if text := itemText(line); text != "" {
			flush()
			pending = text
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if pending == "" {
				pending = trimmed
			} else {
				pending += " " + trimmed
			}
		}
	}
	flush()
	return blocks
}

// FromRuns builds blocks of the given kind from inline runs, enforcing
// the per-unit length limit: runs are grouped until adding the next one
// would exceed MaxUnitLen, at which point the group is flushed as its
// own block. A single run longer than the limit is split into
// exact-limit chunks that keep its formatting. Callers assembling
// blocks by hand use this so their output honors the same limit as
// Transform.
func FromRuns(kind Kind, level int, runs []Run) []Block {
	if len(runs) == 0 {
		return nil
	}
	var blocks []Block
	var group []Run
	groupLen := 0

	flush := func() {
		if len(group) > 0 {
			blocks = append(blocks, Block{Kind: kind, Level: level, Runs: group})
			group = nil
			groupLen = 0
		}
	}

	for _, run := range runs {
		length := len([]rune(run.Text))
		if length > MaxUnitLen {
			flush()
			for _, chunk := range splitRunes(run.Text, MaxUnitLen) {
				sub := run
				sub.Text = chunk
				blocks = append(blocks, Block{Kind: kind, Level: level, Runs: []Run{sub}})
			}
			continue
		}
		if groupLen+length > MaxUnitLen {
			flush()
		}
		group = append(group, run)
		groupLen += length
	}
	flush()
	return blocks
}

// splitRunes chops text into chunks of at most limit runes.
func splitRunes(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var chunks []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

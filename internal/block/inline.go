package block

import "strings"

// parseInline splits text into formatted runs. Links are located first
// so emphasis markers never cut across a link boundary; bold and italic
// are matched leftmost-first, non-overlapping, non-nested. Unmatched
// delimiters stay in the text as literals.
func parseInline(text string) []Run {
	if text == "" {
		return nil
	}
	var runs []Run
	rest := text
	for {
		linkText, linkURL, before, after, ok := findLink(rest)
		if !ok {
			runs = append(runs, parseEmphasis(rest)...)
			break
		}
		runs = append(runs, parseEmphasis(before)...)
		runs = append(runs, Run{Text: linkText, Link: linkURL})
		rest = after
	}
	return runs
}

// findLink locates the leftmost [text](url) occurrence. Both text and
// url must be non-empty for the match to count; otherwise the brackets
// are left for the emphasis pass to treat as literals.
func findLink(text string) (linkText, linkURL, before, after string, ok bool) {
	searchFrom := 0
	for {
		open := strings.Index(text[searchFrom:], "[")
		if open < 0 {
			return "", "", "", "", false
		}
		open += searchFrom
		close := strings.Index(text[open:], "](")
		if close < 0 {
			return "", "", "", "", false
		}
		close += open
		end := strings.Index(text[close+2:], ")")
		if end < 0 {
			searchFrom = open + 1
			continue
		}
		end += close + 2
		label := text[open+1 : close]
		url := text[close+2 : end]
		if label == "" || url == "" {
			searchFrom = open + 1
			continue
		}
		return label, url, text[:open], text[end+1:], true
	}
}

// parseEmphasis extracts bold (**x**) and italic (*x*) spans from text
// that contains no links.
func parseEmphasis(text string) []Run {
	var runs []Run
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			runs = append(runs, Run{Text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(text) {
		if text[i] != '*' {
			literal.WriteByte(text[i])
			i++
			continue
		}
		if strings.HasPrefix(text[i:], "**") {
			end := strings.Index(text[i+2:], "**")
			if end > 0 {
				flush()
				runs = append(runs, Run{Text: text[i+2 : i+2+end], Bold: true})
				i += end + 4
				continue
			}
			literal.WriteString("**")
			i += 2
			continue
		}
		end := strings.Index(text[i+1:], "*")
		if end > 0 {
			flush()
			runs = append(runs, Run{Text: text[i+1 : i+1+end], Italic: true})
			i += end + 2
			continue
		}
		literal.WriteByte('*')
		i++
	}
	flush()
	return runs
}

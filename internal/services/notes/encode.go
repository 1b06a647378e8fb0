package notes

import (
	"time"

	"quill/internal/block"
)

// pageProperties builds the property payload for page creation. The
// header must already be normalized.
func pageProperties(header PageHeader) map[string]any {
	props := map[string]any{
		"Title": map[string]any{
			"title": []map[string]any{richText(header.Title)},
		},
		"Score": map[string]any{"number": header.Score},
	}
	if header.Summary != "" {
		props["Summary"] = map[string]any{
			"rich_text": []map[string]any{richText(header.Summary)},
		}
	}
	if len(header.Tags) > 0 {
		tags := make([]map[string]string, 0, len(header.Tags))
		for _, tag := range header.Tags {
			tags = append(tags, map[string]string{"name": tag})
		}
		props["Tags"] = map[string]any{"multi_select": tags}
	}
	if header.Source != "" {
		props["Source"] = map[string]any{
			"select": map[string]string{"name": header.Source},
		}
	}
	if !header.Date.IsZero() {
		props["Date"] = map[string]any{
			"date": map[string]string{"start": header.Date.Format(time.RFC3339)},
		}
	}
	if header.Link != "" {
		props["Link"] = map[string]any{"url": header.Link}
	}
	return props
}

// encodeBlock serializes one typed block into the destination's block
// object shape. Every block kind is handled here so a new kind fails to
// compile rather than silently dropping content.
func encodeBlock(b block.Block) map[string]any {
	switch b.Kind {
	case block.KindHeading:
		key := headingKey(b.Level)
		return map[string]any{
			"object": "block",
			"type":   key,
			key:      map[string]any{"rich_text": encodeRuns(b.Runs)},
		}
	case block.KindBullet:
		return map[string]any{
			"object":             "block",
			"type":               "bulleted_list_item",
			"bulleted_list_item": map[string]any{"rich_text": encodeRuns(b.Runs)},
		}
	case block.KindNumbered:
		return map[string]any{
			"object":             "block",
			"type":               "numbered_list_item",
			"numbered_list_item": map[string]any{"rich_text": encodeRuns(b.Runs)},
		}
	case block.KindCode:
		return map[string]any{
			"object": "block",
			"type":   "code",
			"code": map[string]any{
				"rich_text": []map[string]any{richText(b.Text)},
				"language":  "plain text",
			},
		}
	case block.KindDivider:
		return map[string]any{
			"object":  "block",
			"type":    "divider",
			"divider": map[string]any{},
		}
	default:
		return map[string]any{
			"object":    "block",
			"type":      "paragraph",
			"paragraph": map[string]any{"rich_text": encodeRuns(b.Runs)},
		}
	}
}

func headingKey(level int) string {
	switch level {
	case 1:
		return "heading_1"
	case 2:
		return "heading_2"
	default:
		return "heading_3"
	}
}

func encodeRuns(runs []block.Run) []map[string]any {
	out := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		entry := richText(run.Text)
		if run.Link != "" {
			text := entry["text"].(map[string]any)
			text["link"] = map[string]string{"url": run.Link}
		}
		if run.Bold || run.Italic {
			entry["annotations"] = map[string]bool{
				"bold":   run.Bold,
				"italic": run.Italic,
			}
		}
		out = append(out, entry)
	}
	return out
}

func richText(text string) map[string]any {
	return map[string]any{
		"type": "text",
		"text": map[string]any{"content": text},
	}
}

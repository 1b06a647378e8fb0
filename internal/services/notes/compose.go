package notes

import (
	"fmt"
	"strings"
	"time"

	"quill/internal/block"
)

// Document is the fully assembled content for one remote page.
type Document struct {
	Header   PageHeader
	Insights []string
	Links    []string
	Content  string
	SourceID string
}

// ComposeBlocks lays out the page body: key insights, mentioned links,
// the primary content under the configured heading, and a metadata
// footer. The contentHeading doubles as the criticality sentinel the
// batcher looks for. Handcrafted sections go through block.FromRuns so
// every emitted leaf honors the destination's per-unit length limit.
func ComposeBlocks(doc Document, contentHeading string) []block.Block {
	var blocks []block.Block

	if len(doc.Insights) > 0 {
		blocks = append(blocks, heading(2, "Key Insights")...)
		for _, insight := range doc.Insights {
			insight = strings.TrimSpace(insight)
			if insight == "" {
				continue
			}
			blocks = append(blocks, block.FromRuns(block.KindBullet, 0, []block.Run{{Text: insight}})...)
		}
		blocks = append(blocks, block.Block{Kind: block.KindDivider})
	}

	if len(doc.Links) > 0 {
		blocks = append(blocks, heading(2, "Mentioned Links")...)
		for _, link := range doc.Links {
			link = strings.TrimSpace(link)
			if link == "" {
				continue
			}
			blocks = append(blocks, block.FromRuns(block.KindBullet, 0, []block.Run{{Text: link, Link: link}})...)
		}
		blocks = append(blocks, block.Block{Kind: block.KindDivider})
	}

	if strings.TrimSpace(doc.Content) != "" {
		blocks = append(blocks, heading(2, contentHeading)...)
		blocks = append(blocks, block.Transform(doc.Content)...)
		blocks = append(blocks, block.Block{Kind: block.KindDivider})
	}

	blocks = append(blocks, footer(doc)...)
	return blocks
}

func heading(level int, text string) []block.Block {
	return block.FromRuns(block.KindHeading, level, []block.Run{{Text: text}})
}

func footer(doc Document) []block.Block {
	parts := []string{
		fmt.Sprintf("Source: %s", valueOr(doc.Header.Source, "unknown")),
	}
	if doc.SourceID != "" {
		parts = append(parts, fmt.Sprintf("ID: %s", doc.SourceID))
	}
	if !doc.Header.Date.IsZero() {
		parts = append(parts, doc.Header.Date.Format(time.RFC3339))
	}
	return block.FromRuns(block.KindParagraph, 0, []block.Run{{Text: strings.Join(parts, " | "), Italic: true}})
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

package notes

import (
	"fmt"
	"testing"

	"quill/internal/block"
)

func paragraphs(n int) []block.Block {
	blocks := make([]block.Block, 0, n)
	for i := 0; i < n; i++ {
		blocks = append(blocks, block.Block{
			Kind: block.KindParagraph,
			Runs: []block.Run{{Text: fmt.Sprintf("paragraph %d", i)}},
		})
	}
	return blocks
}

func TestBatchBlocksEmpty(t *testing.T) {
	if batches := BatchBlocks(nil, "Original Content"); batches != nil {
		t.Fatalf("expected no batches, got %d", len(batches))
	}
}

func TestBatchBlocksBounds(t *testing.T) {
	batches := BatchBlocks(paragraphs(250), "")
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	wantSizes := []int{100, 100, 50}
	for i, batch := range batches {
		if len(batch.Blocks) != wantSizes[i] {
			t.Fatalf("batch %d: want %d blocks, got %d", i, wantSizes[i], len(batch.Blocks))
		}
	}
}

func TestBatchBlocksFirstBatchAlwaysCritical(t *testing.T) {
	batches := BatchBlocks(paragraphs(150), "")
	if !batches[0].Critical {
		t.Fatalf("batch 0 must be critical")
	}
	if batches[1].Critical {
		t.Fatalf("batch 1 should not be critical without a sentinel")
	}
}

func TestBatchBlocksSentinelBatchCritical(t *testing.T) {
	blocks := paragraphs(150)
	blocks = append(blocks, block.Block{
		Kind:  block.KindHeading,
		Level: 2,
		Runs:  []block.Run{{Text: "Original Content"}},
	})
	blocks = append(blocks, paragraphs(60)...)

	batches := BatchBlocks(blocks, "Original Content")
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	// The sentinel heading sits at index 150, inside batch 1.
	if !batches[0].Critical || !batches[1].Critical {
		t.Fatalf("batches 0 and 1 must be critical: %v %v", batches[0].Critical, batches[1].Critical)
	}
	if batches[2].Critical {
		t.Fatalf("batch 2 should not be critical")
	}
}

func TestBatchBlocksSentinelIgnoresNonHeadings(t *testing.T) {
	blocks := paragraphs(1)
	blocks = append(blocks, block.Block{
		Kind: block.KindParagraph,
		Runs: []block.Run{{Text: "Original Content"}},
	})
	blocks = append(blocks, paragraphs(120)...)

	batches := BatchBlocks(blocks, "Original Content")
	if batches[1].Critical {
		t.Fatalf("a paragraph matching the sentinel text must not mark its batch critical")
	}
}

func TestBatchBlocksIdempotent(t *testing.T) {
	input := "# Title\n\n" + "Body text here.\n\n" + "## Original Content\n\nThe content."
	first := BatchBlocks(block.Transform(input), "Original Content")
	second := BatchBlocks(block.Transform(input), "Original Content")
	if len(first) != len(second) {
		t.Fatalf("batch counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Critical != second[i].Critical || len(first[i].Blocks) != len(second[i].Blocks) {
			t.Fatalf("batch %d differs between runs", i)
		}
	}
}

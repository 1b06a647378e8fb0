package notes

import (
	"strings"

	"quill/internal/block"
)

// MaxBatchItems is the destination's per-append block limit.
const MaxBatchItems = 100

// Batch is a contiguous slice of blocks sent in one append call. A
// critical batch is one whose loss voids the document: the first batch
// (page lead) and the batch holding the primary-content heading.
type Batch struct {
	Blocks   []block.Block
	Critical bool
}

// BatchBlocks partitions blocks into ordered batches of at most
// MaxBatchItems. The sentinel is the heading text that marks the start
// of primary content; when empty or absent only batch 0 is critical.
func BatchBlocks(blocks []block.Block, sentinel string) []Batch {
	if len(blocks) == 0 {
		return nil
	}
	sentinelIndex := findSentinel(blocks, sentinel)

	var batches []Batch
	for start := 0; start < len(blocks); start += MaxBatchItems {
		end := start + MaxBatchItems
		if end > len(blocks) {
			end = len(blocks)
		}
		critical := start == 0 ||
			(sentinelIndex >= 0 && sentinelIndex >= start && sentinelIndex < end)
		batches = append(batches, Batch{Blocks: blocks[start:end], Critical: critical})
	}
	return batches
}

func findSentinel(blocks []block.Block, sentinel string) int {
	sentinel = strings.TrimSpace(sentinel)
	if sentinel == "" {
		return -1
	}
	for i, b := range blocks {
		if b.Kind != block.KindHeading {
			continue
		}
		if strings.TrimSpace(b.PlainText()) == sentinel {
			return i
		}
	}
	return -1
}

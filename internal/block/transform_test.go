package block

import (
	"strings"
	"testing"
)

func TestTransformEmptyInput(t *testing.T) {
	if blocks := Transform(""); len(blocks) != 0 {
		t.Fatalf("expected no blocks, got %d", len(blocks))
	}
	if blocks := Transform("\n\n  \n"); len(blocks) != 0 {
		t.Fatalf("whitespace-only input should yield no blocks, got %d", len(blocks))
	}
}

func TestTransformClassifiesUnits(t *testing.T) {
	input := strings.Join([]string{
		"# Title",
		"",
		"A paragraph of text.",
		"",
		"- first",
		"- second",
		"",
		"1. one",
		"2. two",
		"",
		"```go",
		"fmt.Println(\"hi\")",
		"```",
		"",
		"---",
	}, "\n")

	blocks := Transform(input)
	kinds := make([]Kind, 0, len(blocks))
	for _, b := range blocks {
		kinds = append(kinds, b.Kind)
	}
	want := []Kind{KindHeading, KindParagraph, KindBullet, KindBullet, KindNumbered, KindNumbered, KindCode, KindDivider}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d blocks, got %d (%v)", len(want), len(kinds), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("block %d: want %s, got %s", i, want[i], kinds[i])
		}
	}
	if blocks[0].Level != 1 {
		t.Fatalf("heading level: want 1, got %d", blocks[0].Level)
	}
	if blocks[6].Text != "fmt.Println(\"hi\")" {
		t.Fatalf("code text: got %q", blocks[6].Text)
	}
}

func TestTransformHeadingLevelCappedAtThree(t *testing.T) {
	blocks := Transform("##### deep heading")
	if len(blocks) != 1 || blocks[0].Kind != KindHeading {
		t.Fatalf("expected a single heading, got %+v", blocks)
	}
	if blocks[0].Level != 3 {
		t.Fatalf("heading level: want 3, got %d", blocks[0].Level)
	}
}

func TestTransformDropsMarkerOnlyHeading(t *testing.T) {
	if blocks := Transform("###"); len(blocks) != 0 {
		t.Fatalf("marker-only heading should be dropped, got %+v", blocks)
	}
}

func TestTransformDiscardsTableSeparators(t *testing.T) {
	input := "| Col | Col |\n|-----|-----|\n| a | b |"
	blocks := Transform(input)
	for _, b := range blocks {
		if strings.Contains(b.PlainText(), "---") {
			t.Fatalf("table separator leaked into output: %q", b.PlainText())
		}
	}
	joined := ""
	for _, b := range blocks {
		joined += b.PlainText()
	}
	if !strings.Contains(joined, "| a | b |") {
		t.Fatalf("table content rows must survive, got %q", joined)
	}
}

func TestTransformSplitsLongParagraph(t *testing.T) {
	input := strings.Repeat("a", 4500)
	blocks := Transform(input)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	wantLens := []int{2000, 2000, 500}
	for i, b := range blocks {
		if b.Kind != KindParagraph {
			t.Fatalf("block %d: expected paragraph, got %s", i, b.Kind)
		}
		if got := len([]rune(b.PlainText())); got != wantLens[i] {
			t.Fatalf("block %d: want %d runes, got %d", i, wantLens[i], got)
		}
	}
}

func TestTransformLengthInvariant(t *testing.T) {
	inputs := []string{
		strings.Repeat("x", 6001),
		"**" + strings.Repeat("b", 2500) + "**",
		strings.Repeat("word ", 1200),
		"# " + strings.Repeat("h", 3000),
		"```\n" + strings.Repeat("c", 4100) + "\n```",
	}
	for _, input := range inputs {
		for i, b := range Transform(input) {
			if got := len([]rune(b.PlainText())); got > MaxUnitLen {
				t.Fatalf("block %d exceeds limit: %d runes", i, got)
			}
		}
	}
}

func TestTransformLongRunKeepsFormatting(t *testing.T) {
	blocks := Transform("**" + strings.Repeat("b", 2500) + "**")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	for i, b := range blocks {
		if len(b.Runs) != 1 || !b.Runs[0].Bold {
			t.Fatalf("block %d: bold attribute must propagate to every chunk: %+v", i, b.Runs)
		}
	}
}

func TestTransformLosslessReconstruction(t *testing.T) {
	input := "Intro with **bold** and *italic* plus a [link](https://example.com).\n\nSecond paragraph."
	var joined strings.Builder
	for _, b := range Transform(input) {
		joined.WriteString(b.PlainText())
		joined.WriteByte(' ')
	}
	for _, want := range []string{"Intro with", "bold", "italic", "link", "Second paragraph."} {
		if !strings.Contains(joined.String(), want) {
			t.Fatalf("reconstructed text missing %q: %q", want, joined.String())
		}
	}
}

func TestTransformDeterministic(t *testing.T) {
	input := "# T\n\nBody with **bold**.\n\n- a\n- b"
	first := Transform(input)
	second := Transform(input)
	if len(first) != len(second) {
		t.Fatalf("length differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Kind != second[i].Kind || first[i].PlainText() != second[i].PlainText() {
			t.Fatalf("block %d differs between runs", i)
		}
	}
}

func TestListContinuationLines(t *testing.T) {
	blocks := Transform("- item one\n  continues here\n- item two")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 bullet items, got %d", len(blocks))
	}
	if got := blocks[0].PlainText(); got != "item one continues here" {
		t.Fatalf("continuation line should attach to the item, got %q", got)
	}
}

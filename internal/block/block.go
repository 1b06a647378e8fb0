// Package block converts cleaned markdown text into the typed content
// blocks the knowledge-base destination accepts. The transform is pure
// and total: malformed markup degrades to literal paragraph text rather
// than failing.
package block

// MaxUnitLen is the destination's per-unit character limit. Runs are
// split, never truncated, when a leaf would otherwise exceed it.
const MaxUnitLen = 2000

// Kind identifies the structural type of a block.
type Kind string

const (
	KindHeading   Kind = "heading"
	KindParagraph Kind = "paragraph"
	KindBullet    Kind = "bullet"
	KindNumbered  Kind = "numbered"
	KindCode      Kind = "code"
	KindDivider   Kind = "divider"
)

// Run is a span of text carrying uniform formatting. A run holds at most
// one of Bold/Italic; links are never split by emphasis.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Link   string
}

// Block is one structural unit of a destination document. Heading,
// paragraph, and list blocks carry inline runs; code blocks carry raw
// text; dividers carry nothing.
type Block struct {
	Kind  Kind
	Level int
	Runs  []Run
	Text  string
}

// PlainText returns the concatenated run text of the block. Code blocks
// return their raw text.
func (b Block) PlainText() string {
	if b.Kind == KindCode {
		return b.Text
	}
	var size int
	for _, run := range b.Runs {
		size += len(run.Text)
	}
	buf := make([]byte, 0, size)
	for _, run := range b.Runs {
		buf = append(buf, run.Text...)
	}
	return string(buf)
}

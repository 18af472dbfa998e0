package markdown

import "strings"

// BlockKind identifies the variant of a classified markdown line.
type BlockKind string

const (
	KindHeading      BlockKind = "heading"
	KindBulletItem   BlockKind = "bullet_item"
	KindNumberedItem BlockKind = "numbered_item"
	KindCodeBlock    BlockKind = "code_block"
	KindParagraph    BlockKind = "paragraph"
	KindBlankLine    BlockKind = "blank_line"
)

// Block is one classified unit of the markdown stream.
//
// Only the fields relevant to Kind are populated: Level for headings,
// Ordinal for numbered items, Language and Lines for code blocks, and Text
// for everything except code blocks and blank lines.
type Block struct {
	Kind     BlockKind `json:"kind"`
	Level    int       `json:"level,omitempty"`
	Ordinal  int       `json:"ordinal,omitempty"`
	Text     string    `json:"text,omitempty"`
	Language string    `json:"language,omitempty"`
	Lines    []string  `json:"lines,omitempty"`
}

// Heading returns a heading block.
func Heading(level int, text string) Block {
	return Block{Kind: KindHeading, Level: level, Text: text}
}

// BulletItem returns a bulleted list item block.
func BulletItem(text string) Block {
	return Block{Kind: KindBulletItem, Text: text}
}

// NumberedItem returns a numbered list item block.
func NumberedItem(ordinal int, text string) Block {
	return Block{Kind: KindNumberedItem, Ordinal: ordinal, Text: text}
}

// CodeBlock returns a fenced code block. The lines are kept as given.
func CodeBlock(language string, lines []string) Block {
	return Block{Kind: KindCodeBlock, Language: language, Lines: lines}
}

// Paragraph returns a body text block.
func Paragraph(text string) Block {
	return Block{Kind: KindParagraph, Text: text}
}

// BlankLine returns a blank line block.
func BlankLine() Block {
	return Block{Kind: KindBlankLine}
}

// Code returns the code block content joined by newlines.
func (b Block) Code() string {
	return strings.Join(b.Lines, "\n")
}

// CountKind returns how many blocks of the given kind are in blocks.
func CountKind(blocks []Block, kind BlockKind) int {
	n := 0
	for _, b := range blocks {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

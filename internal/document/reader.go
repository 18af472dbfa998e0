package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// Item is one structural element read back from a .docx file.
type Item struct {
	Kind    string   `json:"kind"`
	Level   int      `json:"level,omitempty"`
	Ordinal int      `json:"ordinal,omitempty"`
	Text    string   `json:"text,omitempty"`
	Lines   []string `json:"lines,omitempty"`
}

// Item kinds reported by Inspect.
const (
	ItemTitle     = "title"
	ItemSubtitle  = "subtitle"
	ItemHeading   = "heading"
	ItemBullet    = "bullet"
	ItemNumbered  = "numbered"
	ItemCodeLabel = "code_label"
	ItemCode      = "code"
	ItemParagraph = "paragraph"
)

// ordinalRe matches the "N. " prefix the writer puts on numbered items.
var ordinalRe = regexp.MustCompile(`^(\d+)\. `)

// Outline is the inspectable structure of a generated document.
type Outline struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// Headings returns only the heading items, in document order.
func (o *Outline) Headings() []Item {
	var out []Item
	for _, it := range o.Items {
		if it.Kind == ItemHeading {
			out = append(out, it)
		}
	}
	return out
}

// Count returns how many items of the given kind the outline holds.
func (o *Outline) Count(kind string) int {
	n := 0
	for _, it := range o.Items {
		if it.Kind == kind {
			n++
		}
	}
	return n
}

// InspectFile reads a .docx from disk.
func InspectFile(path string) (*Outline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	return Inspect(f, info.Size())
}

// InspectBytes reads a .docx held in memory.
func InspectBytes(data []byte) (*Outline, error) {
	return Inspect(bytes.NewReader(data), int64(len(data)))
}

// Inspect parses a .docx and reports its structure. Empty paragraphs are
// skipped; code blocks are the shaded single-cell tables written by Save.
func Inspect(r io.ReaderAt, size int64) (*Outline, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &Outline{}
	for _, item := range doc.Document.Body.Items {
		switch node := item.(type) {
		case *docx.Paragraph:
			it, ok := paragraphItem(node)
			if !ok {
				continue
			}
			if it.Kind == ItemTitle && out.Title == "" {
				out.Title = it.Text
			}
			out.Items = append(out.Items, it)
		case *docx.Table:
			out.Items = append(out.Items, tableItem(node))
		}
	}
	return out, nil
}

func paragraphItem(para *docx.Paragraph) (Item, bool) {
	text := paragraphText(para)
	style := paragraphStyle(para)

	if level := headingLevel(style); level > 0 {
		return Item{Kind: ItemHeading, Level: level, Text: text}, text != ""
	}
	if strings.TrimSpace(text) == "" {
		return Item{}, false
	}
	switch {
	case strings.EqualFold(style, StyleTitle):
		return Item{Kind: ItemTitle, Text: text}, true
	case strings.EqualFold(style, StyleSubtitle):
		return Item{Kind: ItemSubtitle, Text: text}, true
	case strings.EqualFold(style, StyleListBullet) || strings.EqualFold(style, "List Bullet"):
		return Item{Kind: ItemBullet, Text: text}, true
	case strings.EqualFold(style, StyleListNumber) || strings.EqualFold(style, "List Number"):
		it := Item{Kind: ItemNumbered, Text: text}
		if m := ordinalRe.FindStringSubmatch(text); m != nil {
			it.Ordinal, _ = strconv.Atoi(m[1])
			it.Text = text[len(m[0]):]
		}
		return it, true
	case strings.EqualFold(style, StyleCodeLabel):
		return Item{Kind: ItemCodeLabel, Text: text}, true
	}
	return Item{Kind: ItemParagraph, Text: text}, true
}

func tableItem(tbl *docx.Table) Item {
	it := Item{Kind: ItemCode}
	for _, row := range tbl.TableRows {
		for _, cell := range row.TableCells {
			for _, p := range cell.Paragraphs {
				it.Lines = append(it.Lines, paragraphText(p))
			}
		}
	}
	it.Text = strings.Join(it.Lines, "\n")
	return it
}

func paragraphStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

func headingLevel(style string) int {
	for level := 1; level <= 6; level++ {
		if strings.EqualFold(style, HeadingStyle(level)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", level)) {
			return level
		}
	}
	return 0
}

// paragraphText concatenates the visible text of every run, without trimming
// so code indentation survives the round trip.
func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}

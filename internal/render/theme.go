package render

// TextStyle is the cosmetic styling of a run of text. Colors are RGB hex
// without a leading '#'.
type TextStyle struct {
	SizePt float64 `json:"size_pt"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
	Color  string  `json:"color,omitempty"`
	Font   string  `json:"font,omitempty"`
}

// Theme maps every element kind to its styling. Heading levels are looked up
// in Headings; the level itself is structural and kept on the element.
type Theme struct {
	Title      TextStyle
	Subtitle   TextStyle
	Separator  TextStyle
	Body       TextStyle
	ListItem   TextStyle
	InlineCode TextStyle
	CodeBlock  TextStyle
	CodeLabel  TextStyle
	Footer     TextStyle
	Timestamp  TextStyle

	Headings map[int]TextStyle

	// CodeBackground fills the code block cell.
	CodeBackground string
	// CodeStyle names the chroma style used for token colors.
	CodeStyle string
}

const (
	bodyFont = "Calibri"
	codeFont = "Consolas"
)

// DefaultTheme returns the house style: dark-to-light blue headings, grey
// decorations and Consolas code on a light grey background.
func DefaultTheme() Theme {
	return Theme{
		Title:      TextStyle{SizePt: 26, Bold: true, Color: "17365D", Font: bodyFont},
		Subtitle:   TextStyle{SizePt: 12, Italic: true, Color: "808080", Font: bodyFont},
		Separator:  TextStyle{SizePt: 11, Color: "C8C8C8", Font: bodyFont},
		Body:       TextStyle{SizePt: 11, Font: bodyFont},
		ListItem:   TextStyle{SizePt: 11, Font: bodyFont},
		InlineCode: TextStyle{SizePt: 10, Color: "C7254E", Font: codeFont},
		CodeBlock:  TextStyle{SizePt: 9, Color: "000000", Font: codeFont},
		CodeLabel:  TextStyle{SizePt: 9, Bold: true, Color: "646464", Font: bodyFont},
		Footer:     TextStyle{SizePt: 9, Italic: true, Color: "808080", Font: bodyFont},
		Timestamp:  TextStyle{SizePt: 8, Color: "969696", Font: bodyFont},
		Headings: map[int]TextStyle{
			1: {SizePt: 16, Bold: true, Color: "1F4E79", Font: bodyFont},
			2: {SizePt: 14, Bold: true, Color: "4F81BD", Font: bodyFont},
			3: {SizePt: 12, Bold: true, Color: "808080", Font: bodyFont},
		},
		CodeBackground: "F8F8F8",
		CodeStyle:      "github",
	}
}

// Heading returns the style for a heading level, clamped to the deepest
// configured level.
func (t Theme) Heading(level int) TextStyle {
	if s, ok := t.Headings[level]; ok {
		return s
	}
	deepest := 0
	for l := range t.Headings {
		if l > deepest {
			deepest = l
		}
	}
	if level > deepest && deepest > 0 {
		return t.Headings[deepest]
	}
	return t.Body
}

package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Token is a colored fragment of one code line.
type Token struct {
	Text   string `json:"text"`
	Color  string `json:"color,omitempty"`
	Bold   bool   `json:"bold,omitempty"`
	Italic bool   `json:"italic,omitempty"`
}

// Highlighter colors code block lines by language using chroma.
type Highlighter struct {
	style *chroma.Style
}

// NewHighlighter returns a highlighter for the named chroma style.
func NewHighlighter(styleName string) *Highlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{style: style}
}

// Lines tokenises the code and returns one token slice per input line.
// It returns nil when the language is unknown or the token stream does not
// reproduce the lines exactly; callers then fall back to plain text.
func (h *Highlighter) Lines(language string, lines []string) [][]Token {
	if h == nil || language == "" || len(lines) == 0 {
		return nil
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	code := strings.Join(lines, "\n")
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil
	}

	out := make([][]Token, 1, len(lines))
	for _, tok := range iterator.Tokens() {
		entry := h.style.Get(tok.Type)
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				out = append(out, nil)
			}
			if part == "" {
				continue
			}
			t := Token{
				Text:   part,
				Bold:   entry.Bold == chroma.Yes,
				Italic: entry.Italic == chroma.Yes,
			}
			if entry.Colour.IsSet() {
				t.Color = strings.TrimPrefix(entry.Colour.String(), "#")
			}
			out[len(out)-1] = append(out[len(out)-1], t)
		}
	}

	// Lexers may append a final newline to the source.
	for len(out) > len(lines) && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	if len(out) != len(lines) {
		return nil
	}
	for i, toks := range out {
		var sb strings.Builder
		for _, t := range toks {
			sb.WriteString(t.Text)
		}
		if sb.String() != lines[i] {
			return nil
		}
	}
	return out
}

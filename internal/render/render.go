package render

import (
	"strings"
	"time"

	"github.com/docxer/docxer/internal/markdown"
)

// Kind identifies a rendered document element.
type Kind string

const (
	KindTitle     Kind = "title"
	KindSubtitle  Kind = "subtitle"
	KindSeparator Kind = "separator"
	KindHeading   Kind = "heading"
	KindBullet    Kind = "bullet"
	KindNumbered  Kind = "numbered"
	KindCodeBlock Kind = "code_block"
	KindParagraph Kind = "paragraph"
	KindBlank     Kind = "blank"
	KindSpacer    Kind = "spacer" // empty line before the footer
	KindFooter    Kind = "footer"
	KindTimestamp Kind = "timestamp"
)

// Default decoration text.
const (
	DefaultTitle       = "Code Documentation"
	DefaultGeneratedBy = "Generated with AI-Powered Analysis"
	DefaultFooter      = "Generated by Docxer - AI-Powered Code Documentation"

	separatorWidth  = 50
	timestampLayout = "January 02, 2006 at 03:04 PM"
)

// Metadata describes the document being rendered.
type Metadata struct {
	Title       string `json:"title"`
	GeneratedBy string `json:"generated_by"`
	Footer      string `json:"footer,omitempty"`
	// Source is the file or task the documentation was generated for.
	Source string `json:"source,omitempty"`
}

// Element is one styled element of a rendered document.
type Element struct {
	Kind    Kind            `json:"kind"`
	Level   int             `json:"level,omitempty"`
	Ordinal int             `json:"ordinal,omitempty"`
	Text    string          `json:"text,omitempty"`
	Spans   []markdown.Span `json:"spans,omitempty"`
	Style   TextStyle       `json:"style"`
	Accent  TextStyle       `json:"accent"`
	Center  bool            `json:"center,omitempty"`

	Language   string    `json:"language,omitempty"`
	Label      string    `json:"label,omitempty"`
	LabelStyle TextStyle `json:"label_style"`
	Lines      []string  `json:"lines,omitempty"`
	Tokens     [][]Token `json:"tokens,omitempty"`
	Background string    `json:"background,omitempty"`
}

// Document is the rendered, styled form of one LLM answer.
type Document struct {
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
	Elements  []Element `json:"elements"`
}

// Body returns the elements produced from markdown blocks, without the fixed
// title and footer decorations.
func (d *Document) Body() []Element {
	var out []Element
	for _, e := range d.Elements {
		switch e.Kind {
		case KindTitle, KindSubtitle, KindSeparator, KindSpacer, KindFooter, KindTimestamp:
			continue
		}
		out = append(out, e)
	}
	return out
}

// Options configures a Renderer.
type Options struct {
	Theme Theme
	// Highlight enables per-token colors in code blocks.
	Highlight bool
	// Now stamps the document; defaults to time.Now.
	Now func() time.Time
}

// Renderer turns markdown into a styled Document. It holds no per-call state
// and is safe for concurrent use.
type Renderer struct {
	theme       Theme
	highlighter *Highlighter
	now         func() time.Time
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	r := &Renderer{
		theme: opts.Theme,
		now:   opts.Now,
	}
	if r.theme.Headings == nil {
		r.theme = DefaultTheme()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if opts.Highlight {
		r.highlighter = NewHighlighter(r.theme.CodeStyle)
	}
	return r
}

// Render scans the markdown and renders the resulting blocks.
func (r *Renderer) Render(src string, meta Metadata) *Document {
	return r.RenderBlocks(markdown.Scan(src), meta)
}

// RenderBlocks renders an already scanned block sequence.
func (r *Renderer) RenderBlocks(blocks []markdown.Block, meta Metadata) *Document {
	meta = withDefaults(meta)
	t := r.theme
	doc := &Document{
		Metadata:  meta,
		CreatedAt: r.now(),
	}

	doc.Elements = append(doc.Elements,
		Element{Kind: KindTitle, Text: meta.Title, Style: t.Title, Center: true},
		Element{Kind: KindSubtitle, Text: meta.GeneratedBy, Style: t.Subtitle, Center: true},
		Element{Kind: KindSeparator, Text: strings.Repeat("─", separatorWidth), Style: t.Separator},
	)

	for _, b := range blocks {
		doc.Elements = append(doc.Elements, r.element(b))
	}

	doc.Elements = append(doc.Elements,
		Element{Kind: KindSpacer},
		Element{Kind: KindFooter, Text: meta.Footer, Style: t.Footer, Center: true},
		Element{Kind: KindTimestamp, Text: "Generated on: " + doc.CreatedAt.Format(timestampLayout), Style: t.Timestamp, Center: true},
	)
	return doc
}

func (r *Renderer) element(b markdown.Block) Element {
	t := r.theme
	switch b.Kind {
	case markdown.KindHeading:
		return Element{Kind: KindHeading, Level: b.Level, Text: b.Text, Style: t.Heading(b.Level)}
	case markdown.KindBulletItem:
		return Element{Kind: KindBullet, Text: b.Text, Spans: spans(b.Text), Style: t.ListItem, Accent: t.InlineCode}
	case markdown.KindNumberedItem:
		return Element{Kind: KindNumbered, Ordinal: b.Ordinal, Text: b.Text, Spans: spans(b.Text), Style: t.ListItem, Accent: t.InlineCode}
	case markdown.KindCodeBlock:
		e := Element{
			Kind:       KindCodeBlock,
			Language:   b.Language,
			Lines:      b.Lines,
			Style:      t.CodeBlock,
			Background: t.CodeBackground,
		}
		if b.Language != "" {
			e.Label = "Language: " + strings.ToUpper(b.Language)
			e.LabelStyle = t.CodeLabel
		}
		e.Tokens = r.highlighter.Lines(b.Language, b.Lines)
		return e
	case markdown.KindBlankLine:
		return Element{Kind: KindBlank}
	default:
		return Element{Kind: KindParagraph, Text: b.Text, Spans: spans(b.Text), Style: t.Body, Accent: t.InlineCode}
	}
}

func spans(text string) []markdown.Span {
	s := markdown.SplitCodeSpans(text)
	if len(s) == 0 {
		return []markdown.Span{{Text: text}}
	}
	return s
}

func withDefaults(m Metadata) Metadata {
	if strings.TrimSpace(m.Title) == "" {
		m.Title = DefaultTitle
	}
	if strings.TrimSpace(m.GeneratedBy) == "" {
		m.GeneratedBy = DefaultGeneratedBy
	}
	if strings.TrimSpace(m.Footer) == "" {
		m.Footer = DefaultFooter
	}
	return m
}

// Markdown renders src with the default theme. It is the plain form of
// New(Options{}).Render.
func Markdown(src string, meta Metadata) *Document {
	return New(Options{}).Render(src, meta)
}

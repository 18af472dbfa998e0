package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/docxer/docxer/internal/render"
	"github.com/fumiama/go-docx"
)

// Paragraph style names written for structural elements. Readers (and Word's
// navigation pane) rely on these rather than on font sizes.
const (
	StyleTitle      = "Title"
	StyleSubtitle   = "Subtitle"
	StyleListBullet = "ListBullet"
	StyleListNumber = "ListNumber"
	StyleCodeLabel  = "CodeLabel"
	StyleCode       = "CodeBlock"
)

// HeadingStyle returns the paragraph style for a heading level.
func HeadingStyle(level int) string {
	return "Heading" + strconv.Itoa(level)
}

// FileName returns the output file name for a task or source identifier.
func FileName(id string) string {
	return "documentation_" + id + ".docx"
}

// ParseFileName is the inverse of FileName.
func ParseFileName(name string) (string, bool) {
	id, ok := strings.CutPrefix(name, "documentation_")
	if !ok {
		return "", false
	}
	id, ok = strings.CutSuffix(id, ".docx")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// PersistenceError reports that a rendered document could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("write document %s: %s", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceError reports whether err is a write failure.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// Build converts a rendered document into a go-docx document whose
// styles.xml defines every paragraph style the writer references.
func Build(d *render.Document) (*docx.Docx, error) {
	f, err := newDocx()
	if err != nil {
		return nil, err
	}
	for _, e := range d.Elements {
		addElement(f, e)
	}
	return f, nil
}

// Write serializes the document as .docx to w.
func Write(w io.Writer, d *render.Document) error {
	f, err := Build(d)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("serialize docx: %w", err)
	}
	return nil
}

// Save writes the document to dir/name and returns the full path. The file is
// written to a temporary name first and renamed into place, so a failed write
// never leaves a partial document behind. Failures are *PersistenceError.
func Save(dir, name string, d *render.Document) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".docxer-*.docx")
	if err != nil {
		return "", &PersistenceError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if err := Write(tmp, d); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &PersistenceError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &PersistenceError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", &PersistenceError{Path: path, Err: err}
	}
	return path, nil
}

func addElement(f *docx.Docx, e render.Element) {
	switch e.Kind {
	case render.KindTitle:
		p := f.AddParagraph().Style(StyleTitle).Justification("center")
		addText(p, e.Text, e.Style)
	case render.KindSubtitle, render.KindFooter, render.KindTimestamp, render.KindSeparator:
		p := f.AddParagraph()
		if e.Kind == render.KindSubtitle {
			p.Style(StyleSubtitle)
		}
		if e.Center {
			p.Justification("center")
		}
		addText(p, e.Text, e.Style)
	case render.KindHeading:
		p := f.AddParagraph().Style(HeadingStyle(e.Level))
		addText(p, e.Text, e.Style)
	case render.KindBullet:
		addSpans(f.AddParagraph().Style(StyleListBullet).NumPr(NumBullet, "0"), e)
	case render.KindNumbered:
		// The source ordinal is written as text so "3." stays "3."; Word
		// numbering would restart every list at 1.
		p := f.AddParagraph().Style(StyleListNumber)
		if e.Ordinal > 0 {
			addText(p, strconv.Itoa(e.Ordinal)+". ", e.Style)
		}
		addSpans(p, e)
	case render.KindParagraph:
		addSpans(f.AddParagraph(), e)
	case render.KindCodeBlock:
		addCodeBlock(f, e)
	case render.KindBlank, render.KindSpacer:
		f.AddParagraph()
	}
}

func addSpans(p *docx.Paragraph, e render.Element) {
	for _, sp := range e.Spans {
		style := e.Style
		if sp.Code {
			style = e.Accent
		}
		addText(p, sp.Text, style)
	}
}

func addCodeBlock(f *docx.Docx, e render.Element) {
	if e.Label != "" {
		p := f.AddParagraph().Style(StyleCodeLabel)
		addText(p, e.Label, e.LabelStyle)
	}

	tbl := f.AddTable(1, 1, 0, nil)
	cell := tbl.TableRows[0].TableCells[0]
	if e.Background != "" {
		cell.Shade("clear", "auto", e.Background)
	}

	// One paragraph per source line keeps line breaks and indentation intact.
	for i, line := range e.Lines {
		p := cell.AddParagraph().Style(StyleCode)
		if e.Tokens != nil && i < len(e.Tokens) && len(e.Tokens[i]) > 0 {
			for _, tok := range e.Tokens[i] {
				style := e.Style
				if tok.Color != "" {
					style.Color = tok.Color
				}
				style.Bold = tok.Bold
				style.Italic = tok.Italic
				addText(p, tok.Text, style)
			}
			continue
		}
		addText(p, line, e.Style)
	}
	if len(e.Lines) == 0 {
		cell.AddParagraph().Style(StyleCode)
	}

	f.AddParagraph()
}

// addText appends a styled run. Text with leading or trailing whitespace is
// marked xml:space="preserve", without which Word drops code indentation.
func addText(p *docx.Paragraph, text string, s render.TextStyle) {
	r := p.AddText(text)
	for _, c := range r.Children {
		if t, ok := c.(*docx.Text); ok && t.Text != strings.TrimSpace(t.Text) {
			t.XMLSpace = "preserve"
		}
	}
	styleRun(r, s)
}

func styleRun(r *docx.Run, s render.TextStyle) {
	if s.SizePt > 0 {
		// Sizes are expressed in half-points.
		r.Size(strconv.Itoa(int(s.SizePt * 2)))
	}
	if s.Color != "" {
		r.Color(s.Color)
	}
	if s.Font != "" {
		r.Font(s.Font, s.Font, s.Font, "default")
	}
	if s.Bold {
		r.Bold()
	}
	if s.Italic {
		r.Italic()
	}
}

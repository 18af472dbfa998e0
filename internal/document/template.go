package document

import (
	"archive/zip"
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/fumiama/go-docx"
)

// template holds the parts that define our paragraph styles and list
// numbering. The remaining package parts come from go-docx's default theme.
//
//go:embed template/*.xml template/*.rels
var templateFS embed.FS

// NumBullet is the numbering instance used by bullet items.
const NumBullet = "1"

var baseParts = []struct {
	name string
	fsys fs.FS
	src  string
}{
	{"[Content_Types].xml", templateFS, "template/content_types.xml"},
	{"_rels/.rels", docx.TemplateXMLFS, "xml/default/_rels/.rels"},
	{"docProps/app.xml", docx.TemplateXMLFS, "xml/default/docProps/app.xml"},
	{"docProps/core.xml", docx.TemplateXMLFS, "xml/default/docProps/core.xml"},
	{"word/_rels/document.xml.rels", templateFS, "template/document.xml.rels"},
	{"word/document.xml", templateFS, "template/document.xml"},
	{"word/styles.xml", templateFS, "template/styles.xml"},
	{"word/numbering.xml", templateFS, "template/numbering.xml"},
	{"word/fontTable.xml", docx.TemplateXMLFS, "xml/default/word/fontTable.xml"},
	{"word/theme/theme1.xml", docx.TemplateXMLFS, "xml/default/word/theme/theme1.xml"},
}

// basePackage is an empty .docx carrying our styles and numbering parts.
// go-docx keeps the relationships of a parsed package, which is how the
// numbering part stays referenced from the document.
var basePackage = sync.OnceValues(func() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range baseParts {
		data, err := fs.ReadFile(p.fsys, p.src)
		if err != nil {
			return nil, fmt.Errorf("read template part %s: %w", p.name, err)
		}
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
})

// newDocx returns an empty document built on the base package.
func newDocx() (*docx.Docx, error) {
	data, err := basePackage()
	if err != nil {
		return nil, err
	}
	f, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	return f, nil
}

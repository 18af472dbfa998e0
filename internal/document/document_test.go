package document

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/docxer/docxer/internal/render"
)

const sample = "## Overview\n" +
	"Parses `config.yaml` files.\n" +
	"\n" +
	"**Key Features**\n" +
	"- Fast **parsing**\n" +
	"- Small\n" +
	"1. Install\n" +
	"2. Run\n" +
	"### Example\n" +
	"```python\n" +
	"def main():\n" +
	"    print('hi')\n" +
	"```\n"

func renderSample(t *testing.T, highlight bool) *render.Document {
	t.Helper()
	r := render.New(render.Options{
		Highlight: highlight,
		Now:       func() time.Time { return time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC) },
	})
	return r.Render(sample, render.Metadata{Title: "Code Documentation", GeneratedBy: "Generated for parser.py"})
}

func TestWrite_RoundTripStructure(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, renderSample(t, false)); err != nil {
		t.Fatalf("write: %v", err)
	}

	outline, err := InspectBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}

	if outline.Title != "Code Documentation" {
		t.Errorf("expected title %q, got %q", "Code Documentation", outline.Title)
	}

	headings := outline.Headings()
	want := []Item{
		{Kind: ItemHeading, Level: 2, Text: "Overview"},
		{Kind: ItemHeading, Level: 1, Text: "Key Features"},
		{Kind: ItemHeading, Level: 3, Text: "Example"},
	}
	if len(headings) != len(want) {
		t.Fatalf("expected %d headings, got %+v", len(want), headings)
	}
	for i := range want {
		if headings[i].Level != want[i].Level || headings[i].Text != want[i].Text {
			t.Errorf("heading %d: expected %+v, got %+v", i, want[i], headings[i])
		}
	}

	if n := outline.Count(ItemBullet); n != 2 {
		t.Errorf("expected 2 bullets, got %d", n)
	}
	if n := outline.Count(ItemNumbered); n != 2 {
		t.Errorf("expected 2 numbered items, got %d", n)
	}
	var numbered []Item
	for _, it := range outline.Items {
		if it.Kind == ItemNumbered {
			numbered = append(numbered, it)
		}
	}
	if len(numbered) == 2 && (numbered[0].Ordinal != 1 || numbered[0].Text != "Install" ||
		numbered[1].Ordinal != 2 || numbered[1].Text != "Run") {
		t.Errorf("expected ordinals 1 and 2 with bare text, got %+v", numbered)
	}
	if n := outline.Count(ItemCode); n != 1 {
		t.Fatalf("expected 1 code block, got %d", n)
	}
	if n := outline.Count(ItemCodeLabel); n != 1 {
		t.Errorf("expected 1 code label, got %d", n)
	}

	for _, it := range outline.Items {
		switch it.Kind {
		case ItemCode:
			if !strings.Contains(it.Text, "def main():\n    print('hi')") {
				t.Errorf("expected code with indentation preserved, got %q", it.Text)
			}
		case ItemCodeLabel:
			if it.Text != "Language: PYTHON" {
				t.Errorf("unexpected label %q", it.Text)
			}
		case ItemBullet:
			if strings.Contains(it.Text, "*") {
				t.Errorf("expected emphasis markers removed, got %q", it.Text)
			}
		case ItemParagraph:
			if strings.Contains(it.Text, "`") {
				t.Errorf("expected backticks stripped, got %q", it.Text)
			}
		}
	}
}

// packagePart returns one file from a written .docx package.
func packagePart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open package: %v", err)
	}
	f, err := zr.Open(name)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

func TestWrite_CodeIndentationIsPreserved(t *testing.T) {
	for _, highlight := range []bool{false, true} {
		var buf bytes.Buffer
		if err := Write(&buf, renderSample(t, highlight)); err != nil {
			t.Fatalf("write: %v", err)
		}
		body := packagePart(t, buf.Bytes(), "word/document.xml")
		if !strings.Contains(body, `xml:space="preserve">    `) {
			t.Errorf("highlight=%v: expected indented code run marked xml:space=preserve", highlight)
		}
		if strings.Contains(body, `<w:t>    `) {
			t.Errorf("highlight=%v: found leading whitespace in a run without xml:space", highlight)
		}
	}
}

func TestWrite_StylesAreDefined(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, renderSample(t, false)); err != nil {
		t.Fatalf("write: %v", err)
	}
	styles := packagePart(t, buf.Bytes(), "word/styles.xml")
	body := packagePart(t, buf.Bytes(), "word/document.xml")

	used := []string{StyleTitle, StyleSubtitle, StyleListBullet, StyleListNumber, StyleCodeLabel, StyleCode,
		HeadingStyle(1), HeadingStyle(2), HeadingStyle(3)}
	for _, id := range used {
		if !strings.Contains(styles, `w:styleId="`+id+`"`) {
			t.Errorf("style %q is not defined in styles.xml", id)
		}
	}
	for _, id := range []string{HeadingStyle(1), HeadingStyle(2), HeadingStyle(3), StyleListBullet, StyleListNumber, StyleCode} {
		if !strings.Contains(body, `w:val="`+id+`"`) {
			t.Errorf("expected a paragraph using style %q", id)
		}
	}
	for lvl := 0; lvl < 3; lvl++ {
		if !strings.Contains(styles, `<w:outlineLvl w:val="`+strconv.Itoa(lvl)+`"/>`) {
			t.Errorf("expected a heading style with outline level %d", lvl)
		}
	}
}

func TestWrite_ListNumbering(t *testing.T) {
	doc := render.New(render.Options{}).Render("- first\n- second\n3. third\n7. seventh", render.Metadata{})
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	data := buf.Bytes()

	body := packagePart(t, data, "word/document.xml")
	if n := strings.Count(body, `<w:numId w:val="`+NumBullet+`">`); n != 2 {
		t.Errorf("expected 2 bullets bound to numbering %s, got %d", NumBullet, n)
	}
	if !strings.Contains(body, ">3. </w:t>") || !strings.Contains(body, ">7. </w:t>") {
		t.Errorf("expected visible ordinals in numbered items")
	}
	if !strings.Contains(packagePart(t, data, "word/_rels/document.xml.rels"), `Target="numbering.xml"`) {
		t.Error("expected document relationship to numbering.xml")
	}
	if !strings.Contains(packagePart(t, data, "word/numbering.xml"), `w:numId="`+NumBullet+`"`) {
		t.Error("expected numbering instance for bullets")
	}
	if !strings.Contains(packagePart(t, data, "[Content_Types].xml"), "/word/numbering.xml") {
		t.Error("expected content type override for numbering.xml")
	}

	outline, err := InspectBytes(data)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var got []Item
	for _, it := range outline.Items {
		if it.Kind == ItemNumbered {
			got = append(got, it)
		}
	}
	want := []Item{{Kind: ItemNumbered, Ordinal: 3, Text: "third"}, {Kind: ItemNumbered, Ordinal: 7, Text: "seventh"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestWrite_HighlightedCodeKeepsText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, renderSample(t, true)); err != nil {
		t.Fatalf("write: %v", err)
	}
	outline, err := InspectBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	found := false
	for _, it := range outline.Items {
		if it.Kind == ItemCode && strings.Contains(it.Text, "def main():\n    print('hi')") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected highlighted code to read back verbatim, got %+v", outline.Items)
	}
}

func TestSave_WritesNamedFile(t *testing.T) {
	dir := t.TempDir()
	path, err := Save(dir, FileName("abc123"), renderSample(t, false))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Base(path) != "documentation_abc123.docx" {
		t.Errorf("unexpected file name %q", path)
	}
	outline, err := InspectFile(path)
	if err != nil {
		t.Fatalf("inspect file: %v", err)
	}
	if len(outline.Headings()) != 3 {
		t.Errorf("expected 3 headings, got %d", len(outline.Headings()))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the final file in dir, got %d entries", len(entries))
	}
}

func TestSave_PersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Save(blocker, FileName("x"), renderSample(t, false))
	if err == nil {
		t.Fatal("expected error writing under a regular file")
	}
	if !IsPersistenceError(err) {
		t.Errorf("expected PersistenceError, got %T: %v", err, err)
	}
}

func TestInspect_InvalidData(t *testing.T) {
	if _, err := InspectBytes([]byte("not a zip")); err == nil {
		t.Error("expected error for invalid docx data")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("42"); got != "documentation_42.docx" {
		t.Errorf("unexpected file name %q", got)
	}
}

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name string
		id   string
		ok   bool
	}{
		{FileName("3f2a"), "3f2a", true},
		{"documentation_.docx", "", false},
		{"report.docx", "", false},
		{"documentation_x.pdf", "", false},
	}
	for _, tt := range tests {
		id, ok := ParseFileName(tt.name)
		if id != tt.id || ok != tt.ok {
			t.Errorf("ParseFileName(%q) = %q, %v; want %q, %v", tt.name, id, ok, tt.id, tt.ok)
		}
	}
}

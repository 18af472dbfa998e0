package markdown

import (
	"bytes"
	"fmt"
	stdhtml "html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var previewer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// PreviewHTML renders the LLM markdown as an HTML fragment for browser
// preview. Raw HTML in the source is escaped, not passed through.
func PreviewHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := previewer.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render preview: %w", err)
	}
	return buf.String(), nil
}

const previewPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: Calibri, sans-serif; max-width: 52rem; margin: 2rem auto; }
h1 { color: #1F4E79; } h2 { color: #4F81BD; } h3 { color: #808080; }
pre { background: #F8F8F8; padding: 0.75rem; }
code { font-family: Consolas, monospace; color: #C7254E; }
pre code { color: #000000; }
</style>
</head>
<body>
%s</body>
</html>
`

// PreviewPage wraps PreviewHTML output in a standalone page.
func PreviewPage(title, src string) (string, error) {
	body, err := PreviewHTML(src)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(previewPage, stdhtml.EscapeString(title), body), nil
}

package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	boldRe     = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe   = regexp.MustCompile(`\*(.*?)\*`)
	codeSpanRe = regexp.MustCompile("`[^`]*`")
	holderRe   = regexp.MustCompile("\x00([0-9]+)\x00")
)

// CleanInline collapses markdown emphasis to plain text: **bold** and
// *italic* pairs are replaced by their content and whitespace runs collapse to
// single spaces. Backtick code spans are left exactly as written.
func CleanInline(s string) string {
	var spans []string
	s = codeSpanRe.ReplaceAllStringFunc(s, func(span string) string {
		spans = append(spans, span)
		return "\x00" + strconv.Itoa(len(spans)-1) + "\x00"
	})

	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = strings.Join(strings.Fields(s), " ")

	if len(spans) == 0 {
		return s
	}
	return holderRe.ReplaceAllStringFunc(s, func(h string) string {
		i, err := strconv.Atoi(strings.Trim(h, "\x00"))
		if err != nil || i >= len(spans) {
			return h
		}
		return spans[i]
	})
}

// Span is a run of inline text, either plain or a backtick code span.
type Span struct {
	Text string `json:"text"`
	Code bool   `json:"code,omitempty"`
}

// SplitCodeSpans splits text on single-backtick code spans. The delimiters are
// dropped; an unmatched backtick is kept as literal text.
func SplitCodeSpans(text string) []Span {
	var spans []Span
	rest := text
	for {
		open := strings.IndexByte(rest, '`')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open+1:], '`')
		if closing < 0 {
			break
		}
		if open > 0 {
			spans = append(spans, Span{Text: rest[:open]})
		}
		code := rest[open+1 : open+1+closing]
		if code != "" {
			spans = append(spans, Span{Text: code, Code: true})
		}
		rest = rest[open+closing+2:]
	}
	if rest != "" {
		spans = append(spans, Span{Text: rest})
	}
	return spans
}

// PlainText joins spans back into visible text.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, sp := range spans {
		sb.WriteString(sp.Text)
	}
	return sb.String()
}

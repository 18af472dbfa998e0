package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

const fence = "```"

var numberedRe = regexp.MustCompile(`^(\d+)\.\s`)

type scanState int

const (
	stateScanning scanState = iota
	stateInCodeBlock
)

// scanner classifies lines into blocks. The only state carried between lines
// is the fenced code block: its language tag and the raw lines collected so far.
type scanner struct {
	state    scanState
	language string
	buffer   []string
	blocks   []Block
}

// Scan splits src into lines and classifies each one into a Block.
//
// Classification never fails: anything unrecognized becomes a Paragraph. A
// fenced code block left open at end of input is still emitted with every line
// collected after its opening fence.
func Scan(src string) []Block {
	s := &scanner{}
	for _, line := range splitLines(src) {
		s.feed(line)
	}
	return s.finish()
}

func splitLines(src string) []string {
	if src == "" {
		return nil
	}
	lines := strings.Split(src, "\n")
	// A trailing newline terminates the last line rather than opening a new one.
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func (s *scanner) feed(raw string) {
	line := strings.TrimSpace(raw)

	switch s.state {
	case stateInCodeBlock:
		if strings.HasPrefix(line, fence) {
			s.closeCodeBlock()
			return
		}
		s.buffer = append(s.buffer, raw)
		return

	case stateScanning:
		if strings.HasPrefix(line, fence) {
			s.state = stateInCodeBlock
			s.language = strings.TrimSpace(line[len(fence):])
			s.buffer = nil
			return
		}
		if b, ok := classify(line); ok {
			s.blocks = append(s.blocks, b)
		}
	}
}

func (s *scanner) closeCodeBlock() {
	lines := s.buffer
	if lines == nil {
		lines = []string{}
	}
	s.blocks = append(s.blocks, CodeBlock(s.language, lines))
	s.state = stateScanning
	s.language = ""
	s.buffer = nil
}

func (s *scanner) finish() []Block {
	if s.state == stateInCodeBlock {
		s.closeCodeBlock()
	}
	return s.blocks
}

// classify maps one trimmed line outside a code block to its block. The
// boolean is false only for a paragraph that is empty after cleanup.
func classify(line string) (Block, bool) {
	if line == "" {
		return BlankLine(), true
	}

	if text, ok := boldHeading(line); ok {
		return Heading(1, text), true
	}

	for _, h := range []struct {
		marker string
		level  int
	}{
		{"### ", 3},
		{"## ", 2},
		{"# ", 1},
	} {
		if strings.HasPrefix(line, h.marker) {
			return Heading(h.level, strings.TrimSpace(line[len(h.marker):])), true
		}
	}

	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		return BulletItem(CleanInline(line[2:])), true
	}

	if m := numberedRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		return NumberedItem(n, CleanInline(line[len(m[0]):])), true
	}

	text := CleanInline(line)
	if text == "" {
		return Block{}, false
	}
	return Paragraph(text), true
}

// boldHeading reports whether the line opens and closes with a bold marker
// and returns the text between the outer asterisks. Inner markers are kept,
// so "**Step 1** and **Step 2**" is a heading too.
func boldHeading(line string) (string, bool) {
	if !strings.HasPrefix(line, "**") || !strings.HasSuffix(line, "**") {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(line, "*")), true
}

// Package intake validates uploaded source files and project manifests
// before they reach the LLM.
package intake

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// MinSourceChars is the smallest trimmed source accepted for documentation.
const MinSourceChars = 10

// SourceExtensions are the file types accepted for single-file documentation.
var SourceExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".java", ".cpp", ".c", ".cs", ".php", ".rb", ".go", ".rs",
}

// ValidationError rejects an upload. Status is the HTTP status the API
// answers with.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// StatusOf returns the HTTP status carried by a ValidationError in err's
// chain, or 500 when there is none.
func StatusOf(err error) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Status
	}
	return http.StatusInternalServerError
}

// IsSourceFile reports whether filename has an accepted source extension.
func IsSourceFile(filename string) bool {
	return hasExtension(filename, SourceExtensions)
}

// ReadSource reads a source upload. It checks the extension, enforces
// maxBytes, decodes the text and rejects near-empty files.
func ReadSource(filename string, r io.Reader, maxBytes int64) (string, error) {
	if !IsSourceFile(filename) {
		return "", invalid("Invalid file type. Allowed: %s", strings.Join(SourceExtensions, ", "))
	}
	text, err := ReadText(r, maxBytes)
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(text)) < MinSourceChars {
		return "", invalid("File appears to be empty or too small")
	}
	return text, nil
}

// ReadText reads at most maxBytes and decodes them as text.
func ReadText(r io.Reader, maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", &ValidationError{Status: http.StatusRequestEntityTooLarge, Message: "File too large"}
	}
	return DecodeText(data), nil
}

// DecodeText returns data as UTF-8, falling back to Latin-1 when it is not
// valid UTF-8. Latin-1 maps every byte, so decoding never fails.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(data)
	return string(out)
}

// SanitizeFilename keeps only the base name and strips traversal sequences.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify lowercases s and reduces it to [a-z0-9-], at most 50 characters.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}

// SaveUpload keeps a copy of an accepted upload as <id>_<filename> in dir.
func SaveUpload(dir, id, filename, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, id+"_"+SanitizeFilename(filename))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	return path, nil
}

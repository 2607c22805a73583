// Package parser converts between markdown files and typed records/notes.
//
// A file is a YAML front matter block between "---" delimiters followed by a
// free-form body. Schema-managed fields serialize under their bare names and
// take their type from the resolved context; custom fields carry an explicit
// type-hint suffix on the key ("confidence__float"). Decoding preserves key
// order so files round-trip stably.
//
// Anything the codec cannot make sense of is a ParseError carrying the file
// path; callers decide whether that aborts (single-file load) or skips
// (reindex sweep).
package parser

import (
	"fmt"
	"strings"
)

// ParseError describes a file that could not be parsed into an entity.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(path, format string, args ...any) *ParseError {
	return &ParseError{Path: path, Err: fmt.Errorf(format, args...)}
}

const delimiter = "---"

// splitDocument separates the front matter text from the body. The document
// must open with a "---" line and close with another; the body is whatever
// follows, trimmed of surrounding blank lines.
func splitDocument(content, path string) (frontmatter, body string, err error) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return "", "", parseErrorf(path, "missing front matter delimiter")
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end == -1 {
		return "", "", parseErrorf(path, "unterminated front matter")
	}

	frontmatter = strings.Join(lines[1:end], "\n")
	body = strings.TrimSpace(strings.Join(lines[end+1:], "\n"))
	return frontmatter, body, nil
}

// joinDocument assembles a file from front matter text and body, with one
// blank line between them.
func joinDocument(frontmatter, body string) string {
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteString("\n")
	b.WriteString(frontmatter)
	if !strings.HasSuffix(frontmatter, "\n") {
		b.WriteString("\n")
	}
	b.WriteString(delimiter)
	b.WriteString("\n")
	if body != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(body, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// Package locate re-attaches every field reference as precise,
// highlightable positions in the source text.
package locate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/field-discovery/internal/types"
)

// contextLineChars truncates the context snippet stored per location.
const contextLineChars = 100

var headerRe = regexp.MustCompile(`^#{1,6}\s`)

// truncateRuneSafe cuts s to at most max bytes without splitting a
// multibyte rune, so context snippets stay valid UTF-8.
func truncateRuneSafe(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ClassifyLine maps leading markdown syntax to a line type.
func ClassifyLine(line string) string {
	stripped := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(stripped, "|"):
		return types.LineTableRow
	case headerRe.MatchString(stripped):
		return types.LineHeader
	case strings.HasPrefix(stripped, "- "), strings.HasPrefix(stripped, "* "):
		return types.LineListItem
	case strings.HasPrefix(stripped, ">"):
		return types.LineBlockquote
	default:
		return types.LineParagraph
	}
}

// FindInMarkdown returns every occurrence of reference in content,
// including lexically overlapping matches ("aa" in "aaa" is found
// twice). Global offsets are against the newline-joined content; line
// offsets are relative to the matched line.
func FindInMarkdown(content, reference, filename string) []types.Location {
	if content == "" || reference == "" {
		return nil
	}

	var locations []types.Location
	lines := strings.Split(content, "\n")

	lineStart := 0
	for lineIdx, line := range lines {
		lineType := ""
		pos := 0
		for {
			offset := strings.Index(line[pos:], reference)
			if offset < 0 {
				break
			}
			pos += offset

			if lineType == "" {
				lineType = ClassifyLine(line)
			}
			stripped := truncateRuneSafe(strings.TrimSpace(line), contextLineChars)

			locations = append(locations, types.Location{
				Filename:      filename,
				Type:          lineType,
				LineIndex:     lineIdx,
				CharStart:     lineStart + pos,
				CharEnd:       lineStart + pos + len(reference),
				LineCharStart: pos,
				LineCharEnd:   pos + len(reference),
				Text:          reference,
				ContextLine:   stripped,
			})

			pos++ // allow overlapping matches
		}
		lineStart += len(line) + 1
	}

	return locations
}

package parser

import (
	"fmt"
	"strings"

	"github.com/toozej/sn2ssg/internal/models"
)

// Expand splits a container note into one note per non-empty body line.
// Every occurrence of tag in the container's header lines is rewritten to
// replacement. Body lines follow one separator line after the header region;
// each emitted note is the rewritten header with the Title value suffixed
// " - <n>", a blank line, and the trimmed body line. Numbering counts down:
// with K non-empty body lines the first emitted note is part K and the last
// is part 1. The container itself is not part of the result.
func Expand(note models.Note, tag, replacement string) []models.Note {
	header := HeaderLines(note)
	for i, line := range header {
		if strings.Contains(line, tag) {
			header[i] = strings.ReplaceAll(line, tag, replacement)
		}
	}

	var body []string
	if skip := len(header) + 1; skip < len(note.Lines) {
		body = note.Lines[skip:]
	}

	remaining := 0
	for _, line := range body {
		if line != "" {
			remaining++
		}
	}

	var notes []models.Note
	for _, line := range body {
		if line == "" {
			continue
		}
		lines := retitle(header, fmt.Sprintf(" - %d", remaining))
		lines = append(lines, "", strings.TrimSpace(line))
		notes = append(notes, models.Note{Lines: lines})
		remaining--
	}
	return notes
}

// retitle copies header, appending suffix to the value of its Title line.
// The rewrite substitutes within the raw line text, so the boxed layout
// around the value is preserved.
func retitle(header []string, suffix string) []string {
	out := make([]string, 0, len(header)+2)
	for _, line := range header {
		m := headerLineRe.FindStringSubmatch(line)
		if m != nil && strings.TrimSpace(m[1]) == keyTitle {
			value := strings.TrimSpace(m[2])
			line = strings.ReplaceAll(line, value, value+suffix)
		}
		out = append(out, line)
	}
	return out
}

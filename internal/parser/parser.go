// Package parser turns a raw note dump into discrete note records.
package parser

import (
	"regexp"
	"strings"

	"github.com/toozej/sn2ssg/internal/models"
)

// headerLineRe matches one boxed `| Key: Value |` header line, capturing
// key and value.
var headerLineRe = regexp.MustCompile(`^\|\s*(.*?):\s*(.*?)\s*\|`)

// Header keys recognized by Extract.
const (
	keyTitle = "Title"
	keyDate  = "Date"
	keyTags  = "Tags"
)

// ruleSuffix ends the horizontal-rule lines that box a note's header.
const ruleSuffix = "-+"

// noisePhrases mark sync chatter the dump tool interleaves with note text.
var noisePhrases = []string{
	"sncli database doesn't exist",
	"Starting full sync",
	"Synced new note from server",
	"Saved note to disk",
	"Full sync completed",
}

// CleanDump splits raw dump text into lines, dropping the dump tool's own
// sync log lines.
func CleanDump(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if isNoise(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isNoise(line string) bool {
	for _, p := range noisePhrases {
		if strings.Contains(line, p) {
			return true
		}
	}
	return false
}

// splitState tracks where the splitter is inside the note being accumulated.
type splitState int

const (
	awaitingStart splitState = iota // no rule line seen yet
	inHeader                        // opening rule seen, closing rule pending
	inBody                          // header closed, accumulating body
)

// Split partitions lines into notes. Rule lines open and close the current
// note's header; a rule line arriving while a body is accumulating emits the
// note and starts the next one. The in-progress note is flushed at end of
// input, so concatenating the returned notes' lines reproduces the input
// exactly. Input without any rule line yields a single note.
func Split(lines []string) []models.Note {
	var notes []models.Note
	var cur []string
	state := awaitingStart

	for _, line := range lines {
		if !strings.HasSuffix(line, ruleSuffix) {
			cur = append(cur, line)
			continue
		}
		switch state {
		case awaitingStart:
			state = inHeader
			cur = append(cur, line)
		case inHeader:
			state = inBody
			cur = append(cur, line)
		case inBody:
			notes = append(notes, models.Note{Lines: cur})
			state = inHeader
			cur = []string{line}
		}
	}

	return append(notes, models.Note{Lines: cur})
}

// Extract pulls title, date, and tags out of a note's header lines. Later
// Title and Date lines overwrite earlier ones; Tags lines accumulate. Tag
// items are split on commas and kept as-is, untrimmed. The title has every
// "#" removed so Markdown heading markers never leak into front matter.
func Extract(note models.Note) models.Header {
	var h models.Header
	for _, line := range note.Lines {
		m := headerLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])
		switch key {
		case keyTitle:
			h.Title = strings.ReplaceAll(value, "#", "")
		case keyDate:
			h.Date = value
		case keyTags:
			h.Tags = append(h.Tags, strings.Split(value, ",")...)
		}
	}
	return h
}

// isHeaderLine reports whether a line belongs to the boxed header region.
func isHeaderLine(line string) bool {
	return strings.HasPrefix(line, "|") || strings.HasSuffix(line, "|") || strings.HasPrefix(line, "+-")
}

// HeaderLines returns the note's header region lines in order.
func HeaderLines(note models.Note) []string {
	var out []string
	for _, line := range note.Lines {
		if isHeaderLine(line) {
			out = append(out, line)
		}
	}
	return out
}

// StripHeader returns the note's lines with the header region removed.
func StripHeader(note models.Note) []string {
	var out []string
	for _, line := range note.Lines {
		if !isHeaderLine(line) {
			out = append(out, line)
		}
	}
	return out
}

// StripLeadingTitle drops a leading "# " heading so the title is not
// rendered twice once the synthesized header carries it.
func StripLeadingTitle(lines []string) []string {
	if len(lines) > 0 && strings.HasPrefix(lines[0], "# ") {
		return lines[1:]
	}
	return lines
}

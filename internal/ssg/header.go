// Package ssg renders static-site-generator front matter for notes.
package ssg

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/toozej/sn2ssg/internal/slug"
)

// dumpDateLayout is the date format found in note headers. It carries no
// zone; values are treated as UTC.
const dumpDateLayout = "Mon, 02 Jan 2006 15:04:05"

// leftoverRe finds placeholder tokens still present after substitution.
var leftoverRe = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// ConvertDate reformats a dump header date to ISO 8601 with an explicit
// zero offset.
func ConvertDate(input string) (string, error) {
	t, err := time.Parse(dumpDateLayout, input)
	if err != nil {
		return "", fmt.Errorf("ssg: parse date %q: %w", input, err)
	}
	return t.Format("2006-01-02T15:04:05") + "+00:00", nil
}

// Substitution rewrites a title into a summary: when Find is present in a
// note's tag list after ignored tags are removed, Find is applied to the
// title as a case-insensitive pattern and replaced with Replace.
type Substitution struct {
	Find    string
	Replace string
}

// Pattern compiles the substitution's case-insensitive title pattern.
func (s Substitution) Pattern() (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + s.Find)
}

type compiledSubstitution struct {
	tag     string
	re      *regexp.Regexp
	replace string
}

// Synthesizer renders front-matter header blocks from on-disk templates.
// The template for site type T lives at {templateDir}/T.md and is read
// fresh on every Render call.
type Synthesizer struct {
	templateDir string
	siteType    string
	ignored     []string
	unlisted    []string
	subs        []compiledSubstitution
}

// New builds a Synthesizer. Tags listed in ignored are removed from the
// rendered category list; any tag listed in unlisted flips the unlisted
// flag; subs drive the title-to-summary rewrite and must compile.
func New(templateDir, siteType string, ignored, unlisted []string, subs []Substitution) (*Synthesizer, error) {
	s := &Synthesizer{
		templateDir: templateDir,
		siteType:    siteType,
		ignored:     ignored,
		unlisted:    unlisted,
	}
	for _, sub := range subs {
		re, err := sub.Pattern()
		if err != nil {
			return nil, fmt.Errorf("ssg: substitution %q: %w", sub.Find, err)
		}
		s.subs = append(s.subs, compiledSubstitution{tag: sub.Find, re: re, replace: sub.Replace})
	}
	return s, nil
}

// Fields carries the per-note values substituted into the template. Tags is
// the full extracted list, before any filtering.
type Fields struct {
	Title    string
	Subtitle string
	Author   string
	Date     string
	Tags     []string
}

// Result is a rendered header plus any substitution warnings. Warnings do
// not invalidate the header; the partially rendered block is still usable.
type Result struct {
	Lines    []string
	Warnings []string
}

// Render substitutes fields into the site template and returns the header
// lines. The unlisted flag is decided on the unfiltered tag list; category
// rendering and the summary trigger see the list after ignored tags are
// removed, exhaustively.
func (s *Synthesizer) Render(f Fields) (Result, error) {
	raw, err := os.ReadFile(filepath.Join(s.templateDir, s.siteType+".md"))
	if err != nil {
		return Result{}, fmt.Errorf("ssg: read template: %w", err)
	}

	filtered := s.filterTags(f.Tags)

	tpl := string(raw)
	tpl = strings.ReplaceAll(tpl, "{{title}}", f.Title)
	tpl = strings.ReplaceAll(tpl, "{{subtitle}}", f.Subtitle)
	tpl = strings.ReplaceAll(tpl, "{{author}}", f.Author)
	tpl = strings.ReplaceAll(tpl, "{{date}}", f.Date)
	tpl = strings.ReplaceAll(tpl, "{{slug}}", slug.Make(f.Title))
	tpl = strings.ReplaceAll(tpl, "{{unlisted}}", s.unlistedFlag(f.Tags))
	tpl = strings.ReplaceAll(tpl, "{{tag}}", renderTags(filtered))
	tpl = strings.ReplaceAll(tpl, "{{summary}}", s.summary(f.Title, filtered))

	res := Result{Lines: strings.Split(tpl, "\n")}
	for _, tok := range leftoverRe.FindAllString(tpl, -1) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("unresolved template token %s", tok))
	}
	return res, nil
}

func (s *Synthesizer) unlistedFlag(tags []string) string {
	for _, t := range tags {
		if contains(s.unlisted, t) {
			return "true"
		}
	}
	return "false"
}

// filterTags removes every occurrence of the ignored tags, preserving the
// order of the rest.
func (s *Synthesizer) filterTags(tags []string) []string {
	var out []string
	for _, t := range tags {
		if contains(s.ignored, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// renderTags produces the category substitution: "Uncategorized" when no
// tag remains, the bare tag for one, and for more the first tag followed by
// the rest as indented list items. The multi-line form expands inside the
// single placeholder token.
func renderTags(tags []string) string {
	switch len(tags) {
	case 0:
		return "Uncategorized"
	case 1:
		return tags[0]
	}
	var b strings.Builder
	b.WriteString(tags[0])
	for _, t := range tags[1:] {
		b.WriteString("\n  - ")
		b.WriteString(t)
	}
	return b.String()
}

// summary applies the first substitution whose trigger tag is present. No
// match renders empty, which the consuming site generator reads as "no
// summary".
func (s *Synthesizer) summary(title string, tags []string) string {
	for _, sub := range s.subs {
		if contains(tags, sub.tag) {
			return sub.re.ReplaceAllString(title, sub.replace)
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

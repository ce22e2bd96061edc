// Package pipeline turns a validated dump file into per-note output files.
// One Run is one reconciliation cycle: split the dump, expand continuous
// notes, synthesize a front-matter header per note, write each note under
// its slug, and enforce the parsed-versus-written count invariant before
// the input file is allowed to disappear.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/toozej/sn2ssg/internal/apperr"
	"github.com/toozej/sn2ssg/internal/models"
	"github.com/toozej/sn2ssg/internal/parser"
	"github.com/toozej/sn2ssg/internal/slug"
	"github.com/toozej/sn2ssg/internal/ssg"
	"github.com/toozej/sn2ssg/internal/storage"
)

// Pipeline holds the collaborators for a conversion cycle. Runs are
// synchronous and single-threaded; all cross-run state lives in Out.
type Pipeline struct {
	In          storage.Provider
	Out         storage.Provider
	Synth       *ssg.Synthesizer
	Author      string
	Continuous  string
	Replacement string
	Logger      *slog.Logger
}

// Run processes the dump at inputFile inside the input provider. It returns
// the cycle report and a nil error only when every note reached the output
// tree and the counts reconcile; the input file is removed in exactly that
// case.
func (p *Pipeline) Run(inputFile string) (models.RunReport, error) {
	var report models.RunReport

	before, err := p.Out.CountFiles()
	if err != nil {
		return report, fmt.Errorf("pipeline: count output files: %w", err)
	}
	report.FilesBefore = before

	raw, err := p.In.Read(inputFile)
	if err != nil {
		return report, fmt.Errorf("pipeline: read dump: %w", err)
	}

	notes := parser.Split(parser.CleanDump(string(raw)))
	report.Parsed = len(notes)

	for i := 0; i < len(notes); i++ {
		note := notes[i]
		header := parser.Extract(note)

		if p.Continuous != "" && header.HasTag(p.Continuous) {
			parts := parser.Expand(note, p.Continuous, p.Replacement)
			notes = append(notes, parts...)
			report.Parsed += len(parts) - 1
			p.Logger.Info("expanded continuous note",
				slog.String("title", header.Title),
				slog.Int("parts", len(parts)))
			continue
		}

		changed, err := p.processNote(note, header)
		if err != nil {
			return report, err
		}
		report.Written++
		if !changed {
			report.Unchanged++
		}
	}

	after, err := p.Out.CountFiles()
	if err != nil {
		return report, fmt.Errorf("pipeline: count output files: %w", err)
	}
	report.FilesAfter = after

	if report.Parsed != report.Written || after < before {
		return report, fmt.Errorf("pipeline: %w: parsed %d notes but wrote %d (files %d -> %d)",
			apperr.ErrCountMismatch, report.Parsed, report.Written, before, after)
	}

	if err := p.In.Remove(inputFile); err != nil {
		return report, fmt.Errorf("pipeline: remove input dump: %w", err)
	}
	p.Logger.Info("cycle reconciled",
		slog.Int("parsed", report.Parsed),
		slog.Int("written", report.Written),
		slog.Int("unchanged", report.Unchanged))

	return report, nil
}

// processNote converts one note to a slug-named output file. The returned
// bool reports whether bytes actually changed on disk.
func (p *Pipeline) processNote(note models.Note, header models.Header) (bool, error) {
	if header.Title == "" {
		return false, fmt.Errorf("pipeline: %w (note dated %q)", apperr.ErrEmptyTitle, header.Date)
	}

	date, err := ssg.ConvertDate(header.Date)
	if err != nil {
		return false, fmt.Errorf("pipeline: note %q: %w", header.Title, err)
	}

	res, err := p.Synth.Render(ssg.Fields{
		Title:  header.Title,
		Author: p.Author,
		Date:   date,
		Tags:   header.Tags,
	})
	if err != nil {
		return false, fmt.Errorf("pipeline: note %q: %w", header.Title, err)
	}
	for _, warning := range res.Warnings {
		p.Logger.Warn(warning, slog.String("title", header.Title))
	}

	body := parser.StripLeadingTitle(parser.StripHeader(note))
	name := slug.Filename(header.Title)

	changed, err := p.Out.WriteIfChanged(name, renderFile(res.Lines, body))
	if err != nil {
		return false, fmt.Errorf("pipeline: write %s: %w", name, err)
	}
	if changed {
		p.Logger.Info("wrote note", slog.String("file", name))
	} else {
		p.Logger.Info("note unchanged, skipping write", slog.String("file", name))
	}
	return changed, nil
}

// renderFile terminates every header and body line with a newline.
func renderFile(header, body []string) []byte {
	var b strings.Builder
	for _, line := range header {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, line := range body {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

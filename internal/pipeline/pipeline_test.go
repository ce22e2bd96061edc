package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/adrg/frontmatter"

	"github.com/toozej/sn2ssg/internal/apperr"
	"github.com/toozej/sn2ssg/internal/ssg"
	"github.com/toozej/sn2ssg/internal/storage"
	"github.com/toozej/sn2ssg/internal/testutil"
)

const dumpFile = "sn_dump.md"

const testTemplate = `---
title: "{{title}}"
author: {{author}}
date: {{date}}
slug: {{slug}}
unlisted: {{unlisted}}
categories:
  - {{tag}}
summary: {{summary}}
---`

type noteMeta struct {
	Title      string   `yaml:"title"`
	Author     string   `yaml:"author"`
	Date       string   `yaml:"date"`
	Slug       string   `yaml:"slug"`
	Unlisted   bool     `yaml:"unlisted"`
	Categories []string `yaml:"categories"`
	Summary    string   `yaml:"summary"`
}

type fixture struct {
	p      *Pipeline
	inDir  string
	outDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	inDir, in := testutil.TempFS(t)
	outDir, out := testutil.TempFS(t)

	tplDir := t.TempDir()
	testutil.WriteTemplate(t, tplDir, "hugo", testTemplate)
	synth, err := ssg.New(tplDir, "hugo", []string{"published", "blog"}, []string{"private"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	return fixture{
		p: &Pipeline{
			In:          in,
			Out:         out,
			Synth:       synth,
			Author:      "tester",
			Continuous:  "notes:list",
			Replacement: "list",
			Logger:      testutil.Logger(),
		},
		inDir:  inDir,
		outDir: outDir,
	}
}

func (f fixture) writeDump(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.inDir, dumpFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f fixture) dumpExists() bool {
	_, err := os.Stat(filepath.Join(f.inDir, dumpFile))
	return err == nil
}

func readNote(t *testing.T, dir, name string) (noteMeta, string) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	var meta noteMeta
	rest, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		t.Fatalf("parse front matter of %s: %v", name, err)
	}
	return meta, string(rest)
}

func TestRun_EndToEnd(t *testing.T) {
	f := newFixture(t)
	f.writeDump(t,
		testutil.DumpNote("First Note", "Fri, 15 Aug 2025 10:30:00", "published,ideas",
			"Some text here.", "More text.")+
			testutil.DumpNote("Second Note", "Fri, 15 Aug 2025 11:00:00", "published,private",
				"Only line."))

	report, err := f.p.Run(dumpFile)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Parsed != 2 || report.Written != 2 || report.Unchanged != 0 {
		t.Errorf("report = parsed %d written %d unchanged %d, want 2/2/0",
			report.Parsed, report.Written, report.Unchanged)
	}
	if report.FilesBefore != 0 || report.FilesAfter != 2 {
		t.Errorf("file counts = %d -> %d, want 0 -> 2", report.FilesBefore, report.FilesAfter)
	}
	if f.dumpExists() {
		t.Error("input dump still present after successful run")
	}

	meta, body := readNote(t, f.outDir, "first-note.md")
	if meta.Title != "First Note" {
		t.Errorf("title = %q, want %q", meta.Title, "First Note")
	}
	if meta.Author != "tester" {
		t.Errorf("author = %q, want %q", meta.Author, "tester")
	}
	if meta.Date != "2025-08-15T10:30:00+00:00" {
		t.Errorf("date = %q, want %q", meta.Date, "2025-08-15T10:30:00+00:00")
	}
	if meta.Slug != "first-note" {
		t.Errorf("slug = %q, want %q", meta.Slug, "first-note")
	}
	if meta.Unlisted {
		t.Error("unlisted = true, want false")
	}
	if want := []string{"ideas"}; !reflect.DeepEqual(meta.Categories, want) {
		t.Errorf("categories = %v, want %v", meta.Categories, want)
	}
	if !strings.Contains(body, "Some text here.") || !strings.Contains(body, "More text.") {
		t.Errorf("body lost note text: %q", body)
	}
	if strings.Contains(body, "| Title:") || strings.Contains(body, "+--") {
		t.Errorf("body still carries dump header lines: %q", body)
	}

	meta2, _ := readNote(t, f.outDir, "second-note.md")
	if !meta2.Unlisted {
		t.Error("note tagged private should render unlisted")
	}
	if want := []string{"private"}; !reflect.DeepEqual(meta2.Categories, want) {
		t.Errorf("categories = %v, want %v", meta2.Categories, want)
	}
}

func TestRun_SecondRunLeavesFilesUntouched(t *testing.T) {
	f := newFixture(t)
	dump := testutil.DumpNote("First Note", "Fri, 15 Aug 2025 10:30:00", "published", "Some text.") +
		testutil.DumpNote("Second Note", "Fri, 15 Aug 2025 11:00:00", "published", "Other text.")

	f.writeDump(t, dump)
	if _, err := f.p.Run(dumpFile); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	f.writeDump(t, dump)
	report, err := f.p.Run(dumpFile)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.Written != 2 || report.Unchanged != 2 {
		t.Errorf("second run written %d unchanged %d, want 2/2", report.Written, report.Unchanged)
	}
	if report.FilesBefore != 2 || report.FilesAfter != 2 {
		t.Errorf("file counts = %d -> %d, want 2 -> 2", report.FilesBefore, report.FilesAfter)
	}
}

func TestRun_ExpandsContinuousNote(t *testing.T) {
	f := newFixture(t)
	f.writeDump(t,
		testutil.DumpNote("Groceries", "Fri, 15 Aug 2025 10:30:00", "published,notes:list",
			"milk", "eggs", "bread"))

	report, err := f.p.Run(dumpFile)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Parsed != 3 || report.Written != 3 {
		t.Errorf("report = parsed %d written %d, want 3/3", report.Parsed, report.Written)
	}

	if _, err := os.Stat(filepath.Join(f.outDir, "groceries.md")); !os.IsNotExist(err) {
		t.Error("container note was written, want parts only")
	}

	meta, body := readNote(t, f.outDir, "groceries-3.md")
	if meta.Title != "Groceries - 3" {
		t.Errorf("title = %q, want %q", meta.Title, "Groceries - 3")
	}
	if want := []string{"list"}; !reflect.DeepEqual(meta.Categories, want) {
		t.Errorf("categories = %v, want %v", meta.Categories, want)
	}
	if !strings.Contains(body, "milk") {
		t.Errorf("first part body = %q, want it to carry the first list item", body)
	}

	_, body1 := readNote(t, f.outDir, "groceries-1.md")
	if !strings.Contains(body1, "bread") {
		t.Errorf("last part body = %q, want it to carry the last list item", body1)
	}
}

func TestRun_EmptyTitleIsFatal(t *testing.T) {
	f := newFixture(t)
	f.writeDump(t, testutil.DumpNote("", "Fri, 15 Aug 2025 10:30:00", "published", "text"))

	_, err := f.p.Run(dumpFile)
	if !errors.Is(err, apperr.ErrEmptyTitle) {
		t.Fatalf("Run() error = %v, want ErrEmptyTitle", err)
	}
	if !f.dumpExists() {
		t.Error("input dump removed despite failed run")
	}
}

func TestRun_BadDateIsFatal(t *testing.T) {
	f := newFixture(t)
	f.writeDump(t, testutil.DumpNote("Broken", "yesterday", "published", "text"))

	_, err := f.p.Run(dumpFile)
	if err == nil {
		t.Fatal("Run() = nil, want date parse error")
	}
	if !f.dumpExists() {
		t.Error("input dump removed despite failed run")
	}
}

// shrinkingCounter reports a lower file count after the run than before it,
// simulating an output tree that lost files mid-cycle.
type shrinkingCounter struct {
	*storage.FS
	calls int
}

func (s *shrinkingCounter) CountFiles() (int, error) {
	s.calls++
	if s.calls == 1 {
		return 5, nil
	}
	return 4, nil
}

func TestRun_CountMismatchIsFatal(t *testing.T) {
	f := newFixture(t)
	f.p.Out = &shrinkingCounter{FS: f.p.Out.(*storage.FS)}
	f.writeDump(t, testutil.DumpNote("Fine Note", "Fri, 15 Aug 2025 10:30:00", "published", "text"))

	_, err := f.p.Run(dumpFile)
	if !errors.Is(err, apperr.ErrCountMismatch) {
		t.Fatalf("Run() error = %v, want ErrCountMismatch", err)
	}
	if !f.dumpExists() {
		t.Error("input dump removed despite failed reconciliation")
	}
}

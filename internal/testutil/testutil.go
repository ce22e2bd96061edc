// Package testutil provides shared test helpers for setting up directories,
// templates, and dump fixtures.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/toozej/sn2ssg/internal/storage"
)

// Logger returns a slog.Logger that discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TempFS creates a temporary directory with a storage provider rooted in it.
func TempFS(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// WriteTemplate writes a header template for the given site type into dir.
func WriteTemplate(t *testing.T, dir, siteType, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, siteType+".md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// DumpNote renders one boxed note the way the sync client dumps it. tags is
// the comma-joined tag list; body lines follow a blank separator.
func DumpNote(title, date, tags string, body ...string) string {
	var b strings.Builder
	rule := "+------------------------------------------+"
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "| Title: %s |\n", title)
	fmt.Fprintf(&b, "| Date: %s |\n", date)
	fmt.Fprintf(&b, "| Tags: %s |\n", tags)
	b.WriteString(rule + "\n")
	b.WriteString("\n")
	for _, line := range body {
		b.WriteString(line + "\n")
	}
	return b.String()
}

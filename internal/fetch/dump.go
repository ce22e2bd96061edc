// Package fetch obtains a complete, scope-tagged note dump from the
// external sync client, retrying with exponential backoff.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Dumper fetches the raw note dump for a scope tag into a file.
type Dumper interface {
	Dump(ctx context.Context, scopeTag, destPath string) error
}

// SNCLI invokes the sncli command-line client. An empty Binary resolves
// "sncli" from PATH.
type SNCLI struct {
	Binary string
}

// Dump runs `sncli --config=/dev/null -r dump <tag>` with stdout captured
// to destPath. The destination is recreated on every attempt so a partial
// dump from a failed run never survives.
func (s *SNCLI) Dump(ctx context.Context, scopeTag, destPath string) error {
	bin := s.Binary
	if bin == "" {
		bin = "sncli"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("fetch: locate %s: %w", bin, err)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("fetch: create %s: %w", destPath, err)
	}
	defer out.Close()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--config=/dev/null", "-r", "dump", scopeTag)
	cmd.Stdout = out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("fetch: run %s: %w: %s", bin, err, stderr.String())
	}
	return nil
}

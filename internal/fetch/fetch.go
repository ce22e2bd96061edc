package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/toozej/sn2ssg/internal/apperr"
	"github.com/toozej/sn2ssg/internal/parser"
)

// state of the reconciliation loop.
type state int

const (
	stateFetching state = iota
	stateValidating
)

// Loop drives the dump tool until a complete, scope-tagged dump exists on
// disk. Fetch failures and validation failures draw from one shared retry
// budget; a validation failure discards the dump and re-fetches.
type Loop struct {
	Dumper     Dumper
	ScopeTag   string
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     *slog.Logger

	// Sleep is swappable for tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Run executes the fetch/validate cycle for destPath. It returns nil once a
// validated dump is on disk, or an error wrapping apperr.ErrBudgetExhausted
// once MaxRetries failures have accumulated. No delay is slept after the
// final failure.
func (l *Loop) Run(ctx context.Context, destPath string) error {
	sleep := l.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	attempt := 0
	st := stateFetching
	for {
		var failure error
		switch st {
		case stateFetching:
			err := l.Dumper.Dump(ctx, l.ScopeTag, destPath)
			if err == nil {
				l.Logger.Info("dump fetched", slog.String("path", destPath))
				st = stateValidating
				continue
			}
			failure = err
		case stateValidating:
			err := l.validate(destPath)
			if err == nil {
				l.Logger.Info("dump validated", slog.String("scope_tag", l.ScopeTag))
				return nil
			}
			failure = err
			st = stateFetching
		}

		attempt++
		if attempt >= l.MaxRetries {
			return fmt.Errorf("fetch: %w after %d attempts: %v", apperr.ErrBudgetExhausted, attempt, failure)
		}

		delay := Delay(attempt-1, l.BaseDelay, l.MaxDelay)
		l.Logger.Warn("fetch attempt failed, backing off",
			slog.Int("attempt", attempt),
			slog.Int("max_retries", l.MaxRetries),
			slog.Duration("delay", delay),
			slog.String("error", failure.Error()))
		sleep(delay)

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// validate reads the dump back and checks scope-tag completeness: at least
// one tag-bearing header line must exist, and every one must carry the
// scope tag. A missing file counts as a transient failure like any other.
func (l *Loop) validate(destPath string) error {
	raw, err := os.ReadFile(destPath)
	if err != nil {
		return fmt.Errorf("fetch: read dump: %w", err)
	}

	found := 0
	for _, line := range parser.CleanDump(string(raw)) {
		if !strings.Contains(line, "|") || !strings.Contains(line, "Tags:") {
			continue
		}
		found++
		if !strings.Contains(line, l.ScopeTag) {
			return fmt.Errorf("fetch: header line missing scope tag %q: %s", l.ScopeTag, line)
		}
	}
	if found == 0 {
		return errors.New("fetch: no tag-bearing header lines in dump")
	}
	return nil
}

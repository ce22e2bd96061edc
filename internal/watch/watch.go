// Package watch wakes the cycle loop early when something touches the
// trigger directory. Dropping any file into it requests a refresh without
// waiting out the polling interval.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Trigger starts an fsnotify watcher on dir and returns a channel that
// receives one wakeup after file activity has settled for debounce. The
// channel has capacity one, so event bursts collapse into a single wakeup.
// The watcher runs until ctx is cancelled.
func Trigger(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}

	wake := make(chan struct{}, 1)

	go func() {
		defer w.Close()
		logger.Info("trigger watcher started", slog.String("dir", dir))

		// settleTimer debounces bursts of trigger-file events.
		var settleTimer *time.Timer
		var settleCh <-chan time.Time

		schedule := func() {
			if settleTimer == nil {
				settleTimer = time.NewTimer(debounce)
				settleCh = settleTimer.C
			} else {
				settleTimer.Reset(debounce)
			}
		}

		for {
			select {
			case <-ctx.Done():
				if settleTimer != nil {
					settleTimer.Stop()
				}
				logger.Info("trigger watcher stopped")
				return

			case <-settleCh:
				select {
				case wake <- struct{}{}:
					logger.Debug("refresh trigger fired", slog.String("dir", dir))
				default:
					// A wakeup is already pending; the next cycle picks it up.
				}

			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}

			case watchErr, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("trigger watcher error", slog.String("error", watchErr.Error()))
			}
		}
	}()

	return wake, nil
}

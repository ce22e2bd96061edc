// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/toozej/sn2ssg/internal/api"
	"github.com/toozej/sn2ssg/internal/fetch"
	"github.com/toozej/sn2ssg/internal/models"
	"github.com/toozej/sn2ssg/internal/notify"
	"github.com/toozej/sn2ssg/internal/pipeline"
	"github.com/toozej/sn2ssg/internal/sse"
	"github.com/toozej/sn2ssg/internal/ssg"
	"github.com/toozej/sn2ssg/internal/storage"
	"github.com/toozej/sn2ssg/internal/watch"
)

// notifyTitle prefixes notification subjects so alerts group by origin.
const notifyTitle = "sn2ssg"

// runner bundles the wired components one reconciliation cycle needs.
type runner struct {
	cfg      *Config
	fetcher  *fetch.Loop
	pipe     *pipeline.Pipeline
	tracker  *api.Tracker
	broker   *sse.Broker
	notifier *notify.Notifier
	logger   *slog.Logger
	dumpPath string
}

// Run starts the daemon with the given options. It returns when the context
// is cancelled, a shutdown signal arrives, a cycle fails fatally, or (with
// WithOnce) after the first cycle.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("input_dir", cfg.Dirs.Input),
		slog.String("output_dir", cfg.Dirs.Output),
		slog.String("scope_tag", cfg.Notes.ScopeTag),
		slog.Duration("poll_interval", cfg.App.PollInterval.Std()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure working directories exist.
	if err := os.MkdirAll(cfg.Dirs.Input, 0o755); err != nil {
		return fmt.Errorf("create input dir: %w", err)
	}
	if err := os.MkdirAll(cfg.Dirs.Output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if cfg.Watch.Path != "" {
		if err := os.MkdirAll(cfg.Watch.Path, 0o755); err != nil {
			return fmt.Errorf("create trigger dir: %w", err)
		}
	}

	// Initialize storage.
	in, err := storage.NewFS(cfg.Dirs.Input)
	if err != nil {
		return fmt.Errorf("init input storage: %w", err)
	}
	out, err := storage.NewFS(cfg.Dirs.Output)
	if err != nil {
		return fmt.Errorf("init output storage: %w", err)
	}

	synth, err := ssg.New(cfg.SSG.TemplateDir, cfg.SSG.Type, cfg.IgnoredTags(), cfg.SSG.UnlistedTags, cfg.SSG.Substitutions)
	if err != nil {
		return fmt.Errorf("init header synthesizer: %w", err)
	}

	// The external dump tool writes into the input root directly.
	dumpPath, err := in.Abs(DumpFileName)
	if err != nil {
		return fmt.Errorf("resolve dump path: %w", err)
	}

	// SSE broker and status tracker.
	broker := sse.NewBroker()
	defer broker.Close()
	tracker := api.NewTracker()

	r := &runner{
		cfg: cfg,
		fetcher: &fetch.Loop{
			Dumper:     &fetch.SNCLI{Binary: cfg.Fetch.Binary},
			ScopeTag:   cfg.Notes.ScopeTag,
			MaxRetries: cfg.Fetch.MaxRetries,
			BaseDelay:  cfg.Fetch.BaseDelay.Std(),
			MaxDelay:   cfg.Fetch.MaxDelay.Std(),
			Logger:     logger,
		},
		pipe: &pipeline.Pipeline{
			In:          in,
			Out:         out,
			Synth:       synth,
			Author:      cfg.SSG.Author,
			Continuous:  cfg.Notes.ContinuousTag,
			Replacement: cfg.Notes.ContinuousReplacement,
			Logger:      logger,
		},
		tracker:  tracker,
		broker:   broker,
		notifier: notify.New(cfg.Gotify.URL, cfg.Gotify.Token, logger),
		logger:   logger,
		dumpPath: dumpPath,
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	g, gCtx := errgroup.WithContext(runCtx)

	// Status server (config-gated).
	var httpServer *http.Server
	if cfg.App.HTTP.Enabled() {
		router := api.NewRouter(tracker, broker, broker.ClientCount, cfg.Auth.AuthEnabled(), cfg.Auth.Token)
		httpServer = &http.Server{
			Addr:    cfg.App.HTTP.Address(),
			Handler: router,
		}
		g.Go(func() error {
			logger.Info("Starting status server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server error: %w", err)
			}
			return nil
		})
	}

	// Refresh trigger (config-gated). A nil channel never fires in the
	// cycle loop's select.
	var wake <-chan struct{}
	if cfg.Watch.Path != "" {
		wake, err = watch.Trigger(gCtx, cfg.Watch.Path, cfg.Watch.Debounce.Std(), logger)
		if err != nil {
			return fmt.Errorf("init refresh trigger: %w", err)
		}
	}

	// Cycle loop.
	g.Go(func() error {
		for {
			if err := r.cycle(gCtx); err != nil {
				return err
			}

			if app.once {
				logger.Info("Single cycle requested, shutting down")
				cancelRun()
				return nil
			}

			select {
			case <-gCtx.Done():
				return nil
			case <-time.After(cfg.App.PollInterval.Std()):
			case <-wake:
				logger.Info("Refresh trigger woke the cycle loop")
			}
		}
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancelRun()
		case <-gCtx.Done():
		}

		if httpServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Status server shutdown error", slog.String("error", err.Error()))
			}
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Daemon error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Daemon stopped")
	return nil
}

// cycle performs one fetch-convert-reconcile pass and reports its outcome
// to the tracker, the SSE broker, and the notifier.
func (r *runner) cycle(ctx context.Context) error {
	id := uuid.NewString()
	started := time.Now().UTC()
	r.logger.Info("cycle started", slog.String("run_id", id))
	r.tracker.RecordStart()
	r.broker.RunStarted(id)

	report, err := r.convert(ctx)
	report.ID = id
	report.StartedAt = started
	report.FinishedAt = time.Now().UTC()

	if err != nil {
		r.logger.Error("cycle failed", slog.String("run_id", id), slog.String("error", err.Error()))
		r.tracker.RecordFailure(report, err)
		r.broker.RunFailed(id, err)
		r.notifier.Send(ctx, notifyTitle+" error", err.Error())
		return err
	}

	r.logger.Info("cycle succeeded",
		slog.String("run_id", id),
		slog.Int("parsed", report.Parsed),
		slog.Int("written", report.Written),
		slog.Int("unchanged", report.Unchanged))
	r.tracker.RecordSuccess(report)
	r.broker.RunSucceeded(report)

	if r.cfg.App.Debug {
		r.notifier.Send(ctx, notifyTitle,
			fmt.Sprintf("converted %d notes (%d unchanged)", report.Written, report.Unchanged))
	}
	return nil
}

// convert fetches a validated dump and runs the conversion pipeline on it.
func (r *runner) convert(ctx context.Context) (models.RunReport, error) {
	if err := r.fetcher.Run(ctx, r.dumpPath); err != nil {
		return models.RunReport{}, err
	}
	return r.pipe.Run(DumpFileName)
}

// Package service wires the progression engine together and owns its lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/AccelByte/extend-level-progression/pkg/admin"
	"github.com/AccelByte/extend-level-progression/pkg/cache"
	"github.com/AccelByte/extend-level-progression/pkg/client"
	"github.com/AccelByte/extend-level-progression/pkg/config"
	"github.com/AccelByte/extend-level-progression/pkg/display"
	customerrors "github.com/AccelByte/extend-level-progression/pkg/errors"
	"github.com/AccelByte/extend-level-progression/pkg/flush"
	"github.com/AccelByte/extend-level-progression/pkg/ingest"
	"github.com/AccelByte/extend-level-progression/pkg/metrics"
	"github.com/AccelByte/extend-level-progression/pkg/repository"
)

// DefaultShutdownGrace bounds how long Shutdown waits for an in-flight flush.
const DefaultShutdownGrace = 10 * time.Second

var tracer = otel.Tracer("levelstar.service")

// Options configures a Service. Fs, ConfigPath, Repo and Logger are required.
type Options struct {
	Fs            afero.Fs
	ConfigPath    string
	Repo          repository.ProgressionRepository
	Notifier      client.Notifier // defaults to a LogNotifier
	Logger        *slog.Logger
	Metrics       *metrics.Metrics // optional
	ShutdownGrace time.Duration    // defaults to DefaultShutdownGrace
}

// Service owns the cache, the flush scheduler and the store.
type Service struct {
	loader    *config.ConfigLoader
	repo      repository.ProgressionRepository
	cache     *cache.InMemoryProgressionCache
	ranges    *cache.InMemoryRangeCache
	formatter *display.Formatter
	scheduler *flush.Scheduler
	handler   *ingest.Handler
	command   *admin.ReloadCommand
	cfg       atomic.Pointer[config.Config]
	grace     time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics

	reloadMu     sync.Mutex // Serializes reloads
	shutdownOnce sync.Once
	shutdownErr  error
}

// New loads the config and builds every component. A config that cannot be
// loaded or fails validation is returned as an error; the process must not start.
func New(opts Options) (*Service, error) {
	if opts.Repo == nil {
		return nil, errors.New("service: repository is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = client.NewLogNotifier(opts.Logger)
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = DefaultShutdownGrace
	}

	loader := config.NewConfigLoader(opts.Fs, opts.ConfigPath, opts.Logger)
	cfg, err := loader.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	s := &Service{
		loader:  loader,
		repo:    opts.Repo,
		grace:   opts.ShutdownGrace,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	s.cfg.Store(cfg)

	s.cache = cache.NewInMemoryProgressionCache(opts.Repo, cfg.Rules(), opts.Logger, opts.Metrics)
	s.ranges = cache.NewOrderedRangeCache(cfg.LevelOrder, cfg.Levels, opts.Logger)
	s.formatter = display.NewFormatter(s.ranges, display.TemplatesFromConfig(cfg))
	s.scheduler = flush.NewScheduler(s.cache, opts.Repo, cfg.FlushInterval(), opts.Logger, opts.Metrics)
	s.handler = ingest.NewHandler(s.cache, s.formatter, opts.Notifier, opts.Logger)
	s.command = admin.NewReloadCommand(s, opts.Logger)

	return s, nil
}

// Start launches the background flush loop.
func (s *Service) Start(ctx context.Context) error {
	return s.scheduler.Start(ctx)
}

func (s *Service) Handler() *ingest.Handler { return s.handler }
func (s *Service) ReloadCommand() *admin.ReloadCommand { return s.command }
func (s *Service) Cache() *cache.InMemoryProgressionCache { return s.cache }
func (s *Service) Ranges() *cache.InMemoryRangeCache { return s.ranges }
func (s *Service) Config() *config.Config { return s.cfg.Load() }

// Flush persists the cache immediately.
func (s *Service) Flush(ctx context.Context) (int, error) {
	return s.scheduler.Flush(ctx)
}

// Reload re-reads the config file and applies it without touching cached
// progression. If the file cannot be loaded the running config stays in effect.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	_, span := tracer.Start(ctx, "service.Service.Reload")
	defer span.End()

	cfg, err := s.loader.LoadConfig()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load config failed")
		s.metrics.Reload(false)
		return err
	}

	s.ranges.RebuildOrdered(cfg.LevelOrder, cfg.Levels)
	s.cache.SetRules(cfg.Rules())
	s.formatter.SetTemplates(display.TemplatesFromConfig(cfg))
	s.scheduler.SetInterval(cfg.FlushInterval())
	s.cfg.Store(cfg)

	s.metrics.Reload(true)
	s.logger.Info("Reload applied", "cached_users", s.cache.Len())
	return nil
}

// DisplayLevel returns the user's formatted level label, loading the user if needed.
func (s *Service) DisplayLevel(ctx context.Context, userID uuid.UUID) string {
	return s.formatter.FormatLevel(s.RawLevel(ctx, userID))
}

// RawLevel returns the user's numeric level, loading the user if needed.
func (s *Service) RawLevel(ctx context.Context, userID uuid.UUID) int {
	return s.cache.GetOrLoad(ctx, userID).State().Level
}

// Shutdown stops the loop, persists everything and closes the store.
//
// The sequence is: stop the scheduler (waiting up to the grace period), run a
// final flush, run one more flush to catch mutations that raced the first,
// then close the store. An interrupted stop is logged and the sequence
// continues. Later calls return the first call's result.
func (s *Service) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.shutdown(ctx)
	})
	return s.shutdownErr
}

func (s *Service) shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down", "grace", s.grace)

	if err := s.scheduler.Stop(s.grace); err != nil {
		if !customerrors.HasCode(err, customerrors.ErrCodeInterruptedShutdown) {
			return err
		}
		s.logger.Warn("Flush loop interrupted, continuing with final flush", "error", err)
	}

	var errs []error

	rows, err := s.scheduler.Flush(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("final flush: %w", err))
	}

	extra, err := s.scheduler.Flush(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("pre-close flush: %w", err))
	}

	if err := s.repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	if len(errs) > 0 {
		err := errors.Join(errs...)
		s.logger.Error("Shutdown completed with errors", "error", err)
		return err
	}

	s.logger.Info("Shutdown complete", "rows_flushed", rows, "rows_reflushed", extra)
	return nil
}

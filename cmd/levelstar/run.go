package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"

	"github.com/AccelByte/extend-level-progression/pkg/client"
	"github.com/AccelByte/extend-level-progression/pkg/config"
	"github.com/AccelByte/extend-level-progression/pkg/db"
	"github.com/AccelByte/extend-level-progression/pkg/domain"
	"github.com/AccelByte/extend-level-progression/pkg/metrics"
	levelotel "github.com/AccelByte/extend-level-progression/pkg/otel"
	"github.com/AccelByte/extend-level-progression/pkg/repository"
	"github.com/AccelByte/extend-level-progression/pkg/service"
)

const serviceName = "levelstar"

// runServe runs the engine until SIGINT/SIGTERM or the end of stdin.
func runServe(parent context.Context, cfg RuntimeConfig, stdin io.Reader, stdout io.Writer, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelCfg, err := levelotel.ConfigFromEnv()
	if err != nil {
		return err
	}
	shutdownTracing, err := levelotel.Setup(ctx, serviceName, version, otelCfg)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	fs := afero.NewOsFs()
	written, err := config.EnsureDefaultConfig(fs, cfg.ConfigPath)
	if err != nil {
		return err
	}
	if written {
		logger.Info("Wrote default config", "config_path", cfg.ConfigPath)
	}

	repo, sqlDB, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	svc, err := service.New(service.Options{
		Fs:            fs,
		ConfigPath:    cfg.ConfigPath,
		Repo:          repo,
		Notifier:      newNotifier(cfg, stdout, logger),
		Logger:        logger,
		Metrics:       m,
		ShutdownGrace: cfg.ShutdownGrace,
	})
	if err != nil {
		_ = repo.Close()
		return err
	}

	if err := svc.Start(ctx); err != nil {
		_ = svc.Shutdown(context.Background())
		return err
	}

	metricsSrv := startMetricsServer(cfg.MetricsAddr, newMetricsMux(reg, sqlDB), logger)

	// Reload on SIGHUP, like "/levelstar reload" from the console.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	msgs := make(chan domain.Message, 256)
	consumed := make(chan struct{})
	consumeCtx, stopConsume := context.WithCancel(context.WithoutCancel(ctx))
	defer stopConsume()
	go func() {
		defer close(consumed)
		_ = svc.Handler().Consume(consumeCtx, msgs)
	}()

	inputDone := make(chan error, 1)
	router := newInputRouter(svc.ReloadCommand(), logger)
	go func() {
		inputDone <- router.Run(ctx, stdin, msgs)
		close(msgs)
	}()

	logger.Info("levelstar started",
		"version", version,
		"store", cfg.Store,
		"config_path", cfg.ConfigPath,
		"metrics_addr", cfg.MetricsAddr,
	)

loop:
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
			drainQueue(msgs, cfg.ShutdownGrace)
			stopConsume()
			break loop
		case err := <-inputDone:
			if err != nil {
				logger.Error("Input stream failed", "error", err)
			} else {
				logger.Info("Input closed")
			}
			break loop
		case <-hup:
			if err := svc.Reload(ctx); err != nil {
				logger.Error("Reload failed, keeping previous config", "error", err)
			}
		}
	}

	// Every event already queued is applied before the final flush.
	<-consumed

	shutdownErr := svc.Shutdown(context.Background())

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}

	return shutdownErr
}

// drainQueue waits until the consumer has taken every queued event or limit elapses.
// A blocked stdin read cannot be interrupted, so the queue is drained instead of closed.
func drainQueue(msgs chan domain.Message, limit time.Duration) {
	deadline := time.Now().Add(limit)
	for len(msgs) > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
}

// openRepository opens the configured store. Any failure here is fatal.
// The returned *sql.DB is owned by the repository and only used for health checks.
func openRepository(ctx context.Context, cfg RuntimeConfig) (repository.ProgressionRepository, *sql.DB, error) {
	switch strings.ToLower(cfg.Store) {
	case storePostgres:
		dbCfg, err := db.NewConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.Connect(dbCfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewPostgresProgressionRepository(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		repo.SetCopyThreshold(cfg.PGCopyThreshold)
		return repo, sqlDB, nil

	default:
		dbCfg, err := db.NewSQLiteConfigFromEnv()
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.OpenSQLite(dbCfg)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewSQLiteProgressionRepository(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, err
		}
		return repo, sqlDB, nil
	}
}

func newNotifier(cfg RuntimeConfig, stdout io.Writer, logger *slog.Logger) client.Notifier {
	if strings.EqualFold(cfg.Notifier, notifierLog) {
		return client.NewLogNotifier(logger)
	}
	return client.NewJSONNotifier(stdout)
}

// newMetricsMux serves /metrics from reg and /healthz from a store ping.
func newMetricsMux(reg *prometheus.Registry, sqlDB *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Health(sqlDB); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// startMetricsServer serves handler on addr. An empty addr disables it.
func startMetricsServer(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()

	return srv
}

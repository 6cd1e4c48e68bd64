package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// Store drivers accepted by --store.
const (
	storeSQLite   = "sqlite"
	storePostgres = "postgres"
)

// Notifier kinds accepted by --notifier.
const (
	notifierJSON = "json"
	notifierLog  = "log"
)

// RuntimeConfig holds process configuration. Game rules live in config.yml.
type RuntimeConfig struct {
	ConfigPath      string        `env:"LEVELSTAR_CONFIG_PATH" envDefault:"plugins/LevelStar/config.yml"`
	Store           string        `env:"LEVELSTAR_STORE" envDefault:"sqlite"`
	MetricsAddr     string        `env:"LEVELSTAR_METRICS_ADDR" envDefault:":9464"`
	ShutdownGrace   time.Duration `env:"LEVELSTAR_SHUTDOWN_GRACE" envDefault:"10s"`
	LogLevel        string        `env:"LEVELSTAR_LOG_LEVEL" envDefault:"info"`
	Notifier        string        `env:"LEVELSTAR_NOTIFIER" envDefault:"json"`
	PGCopyThreshold int           `env:"LEVELSTAR_PG_COPY_THRESHOLD" envDefault:"1000"`
}

// parseRuntimeConfig loads RuntimeConfig from the environment.
func parseRuntimeConfig() (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := env.Parse(&cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// bindServeFlags registers flags that override the environment values already in cfg.
func bindServeFlags(cmd *cobra.Command, cfg *RuntimeConfig) {
	fs := cmd.Flags()
	fs.StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath, "path to config.yml")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "progression store: sqlite or postgres")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus listen address (empty disables)")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", cfg.ShutdownGrace, "how long shutdown waits for an in-flight flush")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.Notifier, "notifier", cfg.Notifier, "level-up delivery: json (stdout) or log")
	fs.IntVar(&cfg.PGCopyThreshold, "pg-copy-threshold", cfg.PGCopyThreshold, "batch size from which PostgreSQL flushes use COPY")
}

// Validate checks enumerated settings.
func (c RuntimeConfig) Validate() error {
	switch strings.ToLower(c.Store) {
	case storeSQLite, storePostgres:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, storeSQLite, storePostgres)
	}
	switch strings.ToLower(c.Notifier) {
	case notifierJSON, notifierLog:
	default:
		return fmt.Errorf("unknown notifier %q (want %s or %s)", c.Notifier, notifierJSON, notifierLog)
	}
	if c.ConfigPath == "" {
		return fmt.Errorf("config path is required")
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

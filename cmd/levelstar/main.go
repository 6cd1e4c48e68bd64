package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AccelByte/extend-level-progression/pkg/config"
)

var version = "dev" // Will be set during build

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "levelstar",
		Short:         "Level progression engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `levelstar tracks per-user levels and points driven by host events.

Progression is held in memory and flushed to SQLite or PostgreSQL in
transactional batches. Events are read from stdin as JSON lines:

  {"type":"user_seen","user_id":"<uuid>","player_name":"Steve"}
  {"type":"scoring_event","user_id":"<uuid>","player_name":"Steve","points":50}

A stdin line starting with "/levelstar" is a console command
("/levelstar reload"). SIGHUP also reloads config.yml.`,
	}

	root.AddCommand(newServeCmd(), newInitConfigCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	cfg, envErr := parseRuntimeConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the progression engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			level, _ := parseLogLevel(cfg.LogLevel)
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			return runServe(cmd.Context(), cfg, os.Stdin, os.Stdout, logger)
		},
	}

	bindServeFlags(cmd, &cfg)
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	cfg, _ := parseRuntimeConfig()
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the default config.yml if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if toStdout {
				_, err := cmd.OutOrStdout().Write(config.DefaultConfigYAML())
				return err
			}

			written, err := config.EnsureDefaultConfig(afero.NewOsFs(), cfg.ConfigPath)
			if err != nil {
				return err
			}
			if written {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", cfg.ConfigPath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", cfg.ConfigPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath, "path to config.yml")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "print the default config instead of writing it")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "levelstar %s\n", version)
		},
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lkmltools/git2mbox/cmd"
	"github.com/lkmltools/git2mbox/config"
	"github.com/lkmltools/git2mbox/history"
	"github.com/lkmltools/git2mbox/runner"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "git2mbox <count>",
		Short: "Export messages from a one-message-per-commit git archive into an mbox file",
		Long: `git2mbox converts a mail archive kept as a git history (one message per
commit at a fixed path, the way the LKML archives are stored) into a single
mbox file for browsing with a mail client like mutt.

First check out the LAST message you want to read; the exporter then works
its way back through <count> revisions, appending each message to the mbox
before stepping the checkout to the previous revision.

For example, to export the last 1000 messages:

  $ git checkout origin/master
  $ git2mbox 1000`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(c, args)
			if err != nil {
				return err
			}

			logger, cleanup, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = cleanup()
			}()

			slog.SetDefault(logger)
			logger.Info("starting export", "count", cfg.Count, "messageFile", cfg.MessagePath, "mbox", cfg.MboxPath, "native", cfg.Native)

			return run(cfg, logger)
		},
	}

	rootCmd.SetOut(os.Stdout)
	config.RegisterFlags(rootCmd)
	rootCmd.AddCommand(cmd.StatsCmd, cmd.UploadCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	var stepper history.Stepper
	if cfg.Native {
		stepper = history.NewNativeStepper(cfg.RepoDir)
	} else {
		stepper = history.NewGitStepper(cfg.RepoDir, cfg.GitTimeout)
	}

	r, err := runner.New(cfg, stepper, logger)
	if err != nil {
		return fmt.Errorf("runner.New: %w", err)
	}

	summary, err := r.Run(context.Background())
	if err != nil {
		logger.Error("export failed", append(summary.LogAttrs(), "err", err)...)
		return err
	}

	logger.Info("export completed", summary.LogAttrs()...)
	return nil
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("git2mbox-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler), cleanup, nil
}

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Config captures all command-line options required to run the exporter.
type Config struct {
	Count         int
	MessagePath   string
	MboxPath      string
	RepoDir       string
	Native        bool
	GitTimeout    time.Duration
	LogLevel      string
	LogDir        string
	IncludeHeader []string
	IncludeBody   []string
	ExcludeHeader []string
	ExcludeBody   []string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("message-file", "m", "Path of the checked-out message file (refilled by each step back)")
	flags.String("mbox", "mbox", "Path of the output mbox file (created if absent, appended to)")
	flags.String("repo", ".", "Working directory of the archive repository")
	flags.Bool("native", false, "Step the checkout back with go-git instead of the git binary")
	flags.Duration("git-timeout", 0, "Bound on a single git invocation (0 = no bound)")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (in addition to stdout)")
	flags.StringArray("include-header", nil, "Regex allow-list applied to message headers (mutually exclusive with exclude flags)")
	flags.StringArray("include-body", nil, "Regex allow-list applied to message bodies (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-header", nil, "Regex block-list applied to message headers (mutually exclusive with include flags)")
	flags.StringArray("exclude-body", nil, "Regex block-list applied to message bodies (mutually exclusive with include flags)")
}

// LoadConfig converts the parsed Cobra flags and the positional count
// argument into a Config struct with validation.
func LoadConfig(cmd *cobra.Command, args []string) (Config, error) {
	if len(args) != 1 {
		return Config{}, fmt.Errorf("expected exactly one argument: <count>")
	}

	count, err := strconv.Atoi(args[0])
	if err != nil {
		return Config{}, fmt.Errorf("count %q is not a base-10 integer", args[0])
	}

	flags := cmd.Flags()

	messagePath, err := flags.GetString("message-file")
	if err != nil {
		return Config{}, err
	}
	mboxPath, err := flags.GetString("mbox")
	if err != nil {
		return Config{}, err
	}
	repoDir, err := flags.GetString("repo")
	if err != nil {
		return Config{}, err
	}
	native, err := flags.GetBool("native")
	if err != nil {
		return Config{}, err
	}
	gitTimeout, err := flags.GetDuration("git-timeout")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}
	includeHeader, err := flags.GetStringArray("include-header")
	if err != nil {
		return Config{}, err
	}
	includeBody, err := flags.GetStringArray("include-body")
	if err != nil {
		return Config{}, err
	}
	excludeHeader, err := flags.GetStringArray("exclude-header")
	if err != nil {
		return Config{}, err
	}
	excludeBody, err := flags.GetStringArray("exclude-body")
	if err != nil {
		return Config{}, err
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	cfg := Config{
		Count:         count,
		MessagePath:   messagePath,
		MboxPath:      mboxPath,
		RepoDir:       repoDir,
		Native:        native,
		GitTimeout:    gitTimeout,
		LogLevel:      logLevel,
		LogDir:        logDir,
		IncludeHeader: includeHeader,
		IncludeBody:   includeBody,
		ExcludeHeader: excludeHeader,
		ExcludeBody:   excludeBody,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.Count <= 0 {
		return fmt.Errorf("count must be a positive integer, got %d", cfg.Count)
	}
	if cfg.MessagePath == "" {
		return fmt.Errorf("--message-file must not be empty")
	}
	if cfg.MboxPath == "" {
		return fmt.Errorf("--mbox must not be empty")
	}
	if cfg.GitTimeout < 0 {
		return fmt.Errorf("--git-timeout must not be negative")
	}

	includeActive := len(cfg.IncludeHeader) > 0 || len(cfg.IncludeBody) > 0
	excludeActive := len(cfg.ExcludeHeader) > 0 || len(cfg.ExcludeBody) > 0
	if includeActive && excludeActive {
		return fmt.Errorf("include and exclude flags are mutually exclusive")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}

package config

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func newCommand(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "git2mbox <count>"}
	RegisterFlags(cmd)
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cmd := newCommand(t)

	cfg, err := LoadConfig(cmd, []string{"1000"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Count != 1000 {
		t.Errorf("Count = %d, want 1000", cfg.Count)
	}
	if cfg.MessagePath != "m" {
		t.Errorf("MessagePath = %q, want %q", cfg.MessagePath, "m")
	}
	if cfg.MboxPath != "mbox" {
		t.Errorf("MboxPath = %q, want %q", cfg.MboxPath, "mbox")
	}
	if cfg.RepoDir != "." {
		t.Errorf("RepoDir = %q, want %q", cfg.RepoDir, ".")
	}
	if cfg.Native {
		t.Error("Native should default to false")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadConfigCountValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no args", args: nil},
		{name: "two args", args: []string{"10", "20"}},
		{name: "not a number", args: []string{"ten"}},
		{name: "zero", args: []string{"0"}},
		{name: "negative", args: []string{"-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(newCommand(t), tt.args); err == nil {
				t.Errorf("LoadConfig(%v) succeeded, want error", tt.args)
			}
		})
	}
}

func TestLoadConfigFiltersMutuallyExclusive(t *testing.T) {
	cmd := newCommand(t)
	if err := cmd.Flags().Set("include-header", "Subject: x"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("exclude-body", "spam"); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(cmd, []string{"5"})
	if err == nil {
		t.Fatal("expected mutually exclusive filter error")
	}
	if !strings.Contains(err.Error(), "mutually exclusive") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadConfigLogLevel(t *testing.T) {
	cmd := newCommand(t)
	if err := cmd.Flags().Set("log-level", "WARNING"); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(cmd, []string{"1"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}

	cmd = newCommand(t)
	if err := cmd.Flags().Set("log-level", "loud"); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(cmd, []string{"1"}); err == nil {
		t.Error("expected invalid log level error")
	}
}

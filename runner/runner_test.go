package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lkmltools/git2mbox/config"
	"github.com/lkmltools/git2mbox/history"
	"github.com/lkmltools/git2mbox/mbox"
)

// fakeStepper replays a fixed history: each Back rewrites the message file
// with the next-older message, and fails once the history runs out.
type fakeStepper struct {
	path  string
	older []string
}

func (s *fakeStepper) Back(ctx context.Context) error {
	if len(s.older) == 0 {
		return fmt.Errorf("%w: no parent revision", history.ErrExhausted)
	}
	next := s.older[0]
	s.older = s.older[1:]
	return os.WriteFile(s.path, []byte(next), 0o644)
}

func message(i int) string {
	return fmt.Sprintf("From: Dev %d <dev%d@example.com>\n"+
		"Date: Sat, 3 Jan 1970 12:34:56 -0800\n"+
		"Subject: patch %d\n"+
		"\n"+
		"body %d\n", i, i, i, i)
}

// setupWalk writes message 0 as the current checkout and queues the rest.
func setupWalk(t *testing.T, revisions int) (config.Config, *fakeStepper) {
	t.Helper()
	dir := t.TempDir()

	messagePath := filepath.Join(dir, "m")
	if err := os.WriteFile(messagePath, []byte(message(0)), 0o644); err != nil {
		t.Fatal(err)
	}

	var older []string
	for i := 1; i < revisions; i++ {
		older = append(older, message(i))
	}

	cfg := config.Config{
		MessagePath: messagePath,
		MboxPath:    filepath.Join(dir, "mbox"),
		LogLevel:    "error",
	}
	return cfg, &fakeStepper{path: messagePath, older: older}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunWalksCount(t *testing.T) {
	cfg, stepper := setupWalk(t, 4)
	cfg.Count = 3

	r, err := New(cfg, stepper, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Appended != 3 {
		t.Errorf("Appended = %d, want 3", summary.Appended)
	}
	if summary.Steps != 3 {
		t.Errorf("Steps = %d, want 3", summary.Steps)
	}

	count, err := mbox.CountMessages(cfg.MboxPath)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("mbox holds %d messages, want 3", count)
	}

	// Messages appear in visitation order, newest checkout first.
	data, err := os.ReadFile(cfg.MboxPath)
	if err != nil {
		t.Fatal(err)
	}
	first := string(data[:len(data)/3])
	if want := "dev0@example.com"; !strings.Contains(first, want) {
		t.Errorf("first block does not hold %s:\n%s", want, first)
	}
}

func TestRunHistoryExhausted(t *testing.T) {
	cfg, stepper := setupWalk(t, 2)
	cfg.Count = 5

	r, err := New(cfg, stepper, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure once the history runs out")
	}
	if !errors.Is(err, history.ErrExhausted) {
		t.Errorf("error does not wrap ErrExhausted: %v", err)
	}

	// Both available messages were read and appended as complete blocks
	// before the failing step; nothing was rolled back.
	if summary.Appended != 2 {
		t.Errorf("Appended = %d, want 2", summary.Appended)
	}
	count, err := mbox.CountMessages(cfg.MboxPath)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("mbox holds %d messages, want 2", count)
	}
}

func TestRunMissingMessageFileIsFatal(t *testing.T) {
	cfg, stepper := setupWalk(t, 3)
	cfg.Count = 2
	if err := os.Remove(cfg.MessagePath); err != nil {
		t.Fatal(err)
	}

	r, err := New(cfg, stepper, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected fatal error for unreadable message file")
	}

	if _, err := os.Stat(cfg.MboxPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("mbox file should not exist after an immediate read failure")
	}
}

func TestRunFilterSkipsButStillSteps(t *testing.T) {
	cfg, stepper := setupWalk(t, 3)
	cfg.Count = 2
	cfg.ExcludeHeader = []string{"Subject: patch 1"}

	r, err := New(cfg, stepper, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Appended != 1 {
		t.Errorf("Appended = %d, want 1", summary.Appended)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
	if summary.Steps != 2 {
		t.Errorf("Steps = %d, want 2", summary.Steps)
	}
}

func TestRunFallbacksCounted(t *testing.T) {
	cfg, stepper := setupWalk(t, 2)
	cfg.Count = 1

	// Replace the checked-out message with one missing both headers.
	if err := os.WriteFile(cfg.MessagePath, []byte("Subject: bare\n\nbody\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := New(cfg, stepper, quietLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.AddressFallbacks != 1 {
		t.Errorf("AddressFallbacks = %d, want 1", summary.AddressFallbacks)
	}
	if summary.DateFallbacks != 1 {
		t.Errorf("DateFallbacks = %d, want 1", summary.DateFallbacks)
	}
}

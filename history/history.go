// Package history steps an externally managed checkout backward through
// the archive, one revision per processed message.
package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrExhausted reports that the checkout could not be stepped back,
// typically because no earlier revision exists.
var ErrExhausted = errors.New("history exhausted")

// Stepper moves the checkout back by exactly one revision. On success the
// archive's message path holds the previous message; on failure the run
// must stop.
type Stepper interface {
	Back(ctx context.Context) error
}

// GitStepper steps back by invoking the git binary, the way the archive
// repos are meant to be driven.
type GitStepper struct {
	// WorkDir is the repository working directory. Empty means the
	// current directory.
	WorkDir string

	// Timeout bounds a single git invocation. Zero means no bound: the
	// command is allowed to block for as long as it needs.
	Timeout time.Duration
}

// NewGitStepper returns a GitStepper for the given working directory.
func NewGitStepper(workDir string, timeout time.Duration) *GitStepper {
	return &GitStepper{WorkDir: workDir, Timeout: timeout}
}

// Back runs `git checkout -q HEAD^`. A non-zero exit wraps ErrExhausted:
// the program does not inspect why git failed, only that it did.
func (g *GitStepper) Back(ctx context.Context) error {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	args := []string{"checkout", "-q", "HEAD^"}
	cmd := exec.CommandContext(ctx, "git", args...)
	if g.WorkDir != "" {
		cmd.Dir = g.WorkDir
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", ErrExhausted, (&StepError{
			Args:   args,
			Err:    err,
			Stderr: stderr.String(),
		}).Error())
	}

	return nil
}

// StepError carries the detail of a failed git invocation.
type StepError struct {
	Args   []string
	Err    error
	Stderr string
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *StepError) Unwrap() error {
	return e.Err
}

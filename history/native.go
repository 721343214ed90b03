package history

import (
	"context"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// NativeStepper steps the checkout back with go-git instead of shelling
// out, for hosts without a git binary on PATH. Same contract as
// GitStepper: one revision per call, ErrExhausted when there is no parent
// to move to.
type NativeStepper struct {
	dir string
}

// NewNativeStepper returns a NativeStepper rooted at dir.
func NewNativeStepper(dir string) *NativeStepper {
	if dir == "" {
		dir = "."
	}
	return &NativeStepper{dir: dir}
}

// Back resolves HEAD~1 and checks it out detached.
func (s *NativeStepper) Back(ctx context.Context) error {
	repo, err := git.PlainOpenWithOptions(s.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("open repository %s: %w", s.dir, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision("HEAD~1"))
	if err != nil {
		return fmt.Errorf("%w: resolve HEAD~1: %v", ErrExhausted, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		return fmt.Errorf("%w: checkout %s: %v", ErrExhausted, hash, err)
	}

	return nil
}

// Package runner drives the export walk: read the checked-out message,
// append it to the mbox, step the checkout back, repeat.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lkmltools/git2mbox/config"
	"github.com/lkmltools/git2mbox/envelope"
	"github.com/lkmltools/git2mbox/filter"
	"github.com/lkmltools/git2mbox/history"
	"github.com/lkmltools/git2mbox/mbox"
	"github.com/lkmltools/git2mbox/progress"
	"github.com/lkmltools/git2mbox/stats"
)

type Runner struct {
	cfg     config.Config
	stepper history.Stepper
	fltr    *filter.Filter
	logger  *slog.Logger
}

func New(cfg config.Config, stepper history.Stepper, logger *slog.Logger) (*Runner, error) {
	if stepper == nil {
		return nil, fmt.Errorf("stepper must not be nil")
	}

	fltr, err := filter.New(filter.Options{
		IncludeHeader: cfg.IncludeHeader,
		IncludeBody:   cfg.IncludeBody,
		ExcludeHeader: cfg.ExcludeHeader,
		ExcludeBody:   cfg.ExcludeBody,
	})
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}

	return &Runner{
		cfg:     cfg,
		stepper: stepper,
		fltr:    fltr,
		logger:  logger,
	}, nil
}

// Run performs cfg.Count iterations in strict sequence. Every failure is
// fatal and immediate: the error is returned with however much of the
// summary had accumulated, and the mbox keeps every block appended so far.
// There is no retry and no rollback.
func (r *Runner) Run(ctx context.Context) (stats.Summary, error) {
	collector := stats.NewCollector()
	bar := progress.New(r.cfg.Count, r.cfg.LogLevel)

	done := 0
	defer func() {
		bar.Stop(done)
	}()

	for i := 0; i < r.cfg.Count; i++ {
		if err := ctx.Err(); err != nil {
			return collector.Snapshot(), err
		}

		msg, err := mbox.ReadMessageFile(r.cfg.MessagePath)
		if err != nil {
			return collector.Snapshot(), err
		}

		env := envelope.Synthesize(msg.Header)
		bar.Step(env.Address)

		header, body := filter.SplitRawMessage(msg.Raw)
		if !r.fltr.Allows(header, body) {
			collector.Skipped()
			r.logger.Debug("message filtered out", "iteration", i, "from", env.Address)
		} else {
			n, err := mbox.Append(r.cfg.MboxPath, env, msg)
			if err != nil {
				return collector.Snapshot(), err
			}
			collector.Appended(n, env.AddressFallback, env.DateFallback)
			r.logger.Debug("message appended", "iteration", i, "from", env.Address, "bytes", n)
		}

		if err := r.stepper.Back(ctx); err != nil {
			return collector.Snapshot(), fmt.Errorf("step back at message %d (was that the last one?): %w", i, err)
		}
		collector.Stepped()
		done++
	}

	return collector.Snapshot(), nil
}

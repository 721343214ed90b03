// Package imap pushes a finished mbox into an IMAP folder, one message at
// a time, so the exported archive can be browsed from any mail client.
package imap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/lkmltools/git2mbox/envelope"
	"github.com/lkmltools/git2mbox/mbox"
	"github.com/lkmltools/git2mbox/model"
)

type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	TargetFolder       string
	DryRun             bool
}

func (o Options) folder() string {
	if o.TargetFolder == "" {
		return "INBOX"
	}
	return o.TargetFolder
}

// Upload appends every message in the mbox at path to the target folder.
// Messages are uploaded strictly in file order; the first failure aborts.
// Returns the number of messages uploaded (or, in dry-run mode, counted).
func Upload(ctx context.Context, opts Options, path string, logger *slog.Logger) (int, error) {
	if opts.Host == "" {
		return 0, fmt.Errorf("imap host is empty")
	}
	if opts.Port <= 0 {
		return 0, fmt.Errorf("imap port must be positive")
	}

	var client *imapclient.Client
	if !opts.DryRun {
		var cleanup func()
		var err error
		client, cleanup, err = dial(ctx, opts, logger)
		if err != nil {
			return 0, err
		}
		defer cleanup()
	}

	uploaded := 0
	err := mbox.Read(path, func(m *model.Message) error {
		if opts.DryRun {
			uploaded++
			logger.Debug("dry-run upload", "from", m.From(), "target", opts.folder())
			return nil
		}

		if err := appendMessage(client, opts.folder(), m); err != nil {
			return fmt.Errorf("upload message %d: %w", uploaded, err)
		}
		uploaded++
		logger.Debug("uploaded message", "from", m.From(), "target", opts.folder())
		return nil
	})
	if err != nil {
		return uploaded, err
	}

	return uploaded, nil
}

func dial(ctx context.Context, opts Options, logger *slog.Logger) (*imapclient.Client, func(), error) {
	address := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	options := &imapclient.Options{}

	if opts.UseTLS {
		options.TLSConfig = &tls.Config{
			ServerName:         opts.Host,
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}
	}

	var (
		client *imapclient.Client
		err    error
	)
	if opts.UseTLS {
		client, err = imapclient.DialTLS(address, options)
	} else {
		client, err = imapclient.DialInsecure(address, options)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("dial imap %s: %w", address, err)
	}

	if err := client.Login(opts.Username, opts.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("imap login failed: %w", err)
	}

	if err := ensureMailbox(client, opts.folder(), logger); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	logger.Debug("imap connection established", "address", address, "user", opts.Username, "target", opts.folder(), "tls", opts.UseTLS)

	stopClose := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})

	cleanup := func() {
		stopClose()
		if ctx.Err() == nil {
			if err := client.Logout().Wait(); err != nil {
				logger.Warn("imap logout failed", "err", err)
			}
		}
		_ = client.Close()
	}

	return client, cleanup, nil
}

func appendMessage(client *imapclient.Client, folder string, m *model.Message) error {
	var opts *imapv2.AppendOptions

	// Reuse the envelope date so messages sort sensibly in the folder;
	// fallback dates are better than no date at all.
	env := envelope.Synthesize(m.Header)
	if !env.DateFallback {
		opts = &imapv2.AppendOptions{Time: env.Date}
	}

	cmd := client.Append(folder, int64(len(m.Raw)), opts)

	remaining := m.Raw
	for len(remaining) > 0 {
		n, err := cmd.Write(remaining)
		if err != nil {
			_ = cmd.Close()
			return fmt.Errorf("append write: %w", err)
		}
		if n == 0 {
			_ = cmd.Close()
			return fmt.Errorf("append write: wrote 0 bytes")
		}
		remaining = remaining[n:]
	}

	if err := cmd.Close(); err != nil {
		return fmt.Errorf("append close: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("append wait: %w", err)
	}

	return nil
}

func ensureMailbox(client *imapclient.Client, folder string, logger *slog.Logger) error {
	if err := client.Create(folder, nil).Wait(); err != nil {
		var respErr *imapv2.Error
		if errors.As(err, &respErr) && respErr.Code == imapv2.ResponseCodeAlreadyExists {
			logger.Debug("imap mailbox already exists", "mailbox", folder)
			return nil
		}
		return fmt.Errorf("ensure mailbox %s: %w", folder, err)
	}

	logger.Info("imap mailbox created", "mailbox", folder)
	return nil
}

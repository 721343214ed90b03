package mbox

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/lkmltools/git2mbox/envelope"
	"github.com/lkmltools/git2mbox/model"
)

// ReadMessageFile reads a single message file. Invalid byte sequences are
// dropped rather than reported: the message is carried over as-is and a
// mail reader downstream is responsible for its content. A header block
// that net/mail cannot parse yields an empty header; only a read failure
// is an error, and callers treat it as fatal.
func ReadMessageFile(path string) (*model.Message, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message %s: %w", path, err)
	}

	text := strings.ToValidUTF8(string(raw), "")
	msg := &model.Message{
		Header: mail.Header{},
		Raw:    []byte(text),
	}

	if parsed, err := mail.ReadMessage(strings.NewReader(text)); err == nil {
		msg.Header = parsed.Header
	}

	return msg, nil
}

// Append writes one message block to the mbox at path, creating the file
// if needed. The block is the envelope line, the message text terminated
// by a newline, and a blank line. The file is opened in append mode for
// this write only, so a run that aborts later leaves every earlier block
// complete. Returns the number of bytes written.
func Append(path string, env envelope.Envelope, msg *model.Message) (int64, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open mbox %s: %w", path, err)
	}

	var block bytes.Buffer
	block.WriteString(env.Line())
	block.WriteByte('\n')
	block.Write(msg.Raw)
	if len(msg.Raw) == 0 || msg.Raw[len(msg.Raw)-1] != '\n' {
		block.WriteByte('\n')
	}
	block.WriteByte('\n')

	n, err := file.Write(block.Bytes())
	if err != nil {
		file.Close()
		return int64(n), fmt.Errorf("append to mbox %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return int64(n), fmt.Errorf("close mbox %s: %w", path, err)
	}

	return int64(n), nil
}

// Read iterates over the messages of an existing mbox file, calling fn for
// each. Messages whose header block cannot be parsed are skipped.
func Read(path string, fn func(m *model.Message) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	for {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			continue
		}

		msg := &model.Message{Header: mail.Header{}, Raw: raw}
		if parsed, err := mail.ReadMessage(bytes.NewReader(raw)); err == nil {
			msg.Header = parsed.Header
		}

		if err := fn(msg); err != nil {
			return err
		}
	}
}

// CountMessages counts the messages in an mbox file.
func CountMessages(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	count := 0
	for {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return 0, err
		}
		if _, err := io.Copy(io.Discard, msgReader); err != nil {
			count++
			continue
		}
		count++
	}
}

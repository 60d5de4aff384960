package mbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	mboxlib "github.com/emersion/go-mbox"

	"mailread/model"
	"mailread/state"
)

type Options struct {
	Path string
}

// Backend reads messages out of a local mbox file. Envelope ids are
// 1-based sequence numbers within the file. Since mbox has no flag
// store, the seen side effect of a non-peek read is recorded in the
// state tracker instead.
type Backend struct {
	opts    Options
	tracker state.Tracker
	logger  *slog.Logger
}

func Open(opts Options, tracker state.Tracker, logger *slog.Logger) (*Backend, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, fmt.Errorf("mbox path is empty")
	}
	if tracker == nil {
		return nil, fmt.Errorf("tracker must not be nil")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat mbox: %w", err)
	}

	return &Backend{opts: Options{Path: path}, tracker: tracker, logger: logger}, nil
}

func (b *Backend) Close() error {
	if closer, ok := b.tracker.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// GetMessages reads the messages and records them as seen.
func (b *Backend) GetMessages(ctx context.Context, folder string, ids []string) ([]model.Message, error) {
	return b.read(ctx, folder, ids, true)
}

// PeekMessages reads the messages without recording anything.
func (b *Backend) PeekMessages(ctx context.Context, folder string, ids []string) ([]model.Message, error) {
	return b.read(ctx, folder, ids, false)
}

func (b *Backend) read(ctx context.Context, folder string, ids []string, markSeen bool) ([]model.Message, error) {
	seqs, err := parseSequenceIDs(ids)
	if err != nil {
		return nil, err
	}

	path := b.resolvePath(folder)
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	wanted := make(map[int]bool, len(seqs))
	highest := 0
	for _, seq := range seqs {
		wanted[seq] = true
		if seq > highest {
			highest = seq
		}
	}

	found := make(map[int]model.Message, len(seqs))
	reader := mboxlib.NewReader(file)

	for seq := 1; len(found) < len(wanted) && seq <= highest; seq++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("message %d: %w", seq, err)
		}

		if !wanted[seq] {
			if _, err := io.Copy(io.Discard, msgReader); err != nil {
				return nil, fmt.Errorf("message %d skip: %w", seq, err)
			}
			continue
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return nil, fmt.Errorf("message %d read: %w", seq, err)
		}

		found[seq] = model.Message{
			Raw:        raw,
			ReceivedAt: receivedAt(raw),
			Size:       int64(len(raw)),
		}
	}

	msgs := make([]model.Message, 0, len(found))
	alreadySeen := 0
	for idx, seq := range seqs {
		msg, ok := found[seq]
		if !ok {
			return nil, fmt.Errorf("message %d not found in %s", seq, path)
		}
		msgs = append(msgs, msg)

		if markSeen {
			key := seenKey(path, msg.Raw, seq)
			if b.tracker.Seen(key) {
				alreadySeen++
			}
			if err := b.tracker.MarkSeen(key, ids[idx]); err != nil {
				return nil, fmt.Errorf("mark message %d seen: %w", seq, err)
			}
		}
	}

	if b.logger != nil {
		b.logger.Debug("mbox read completed", "path", path, "requested", len(seqs), "markSeen", markSeen, "alreadySeen", alreadySeen)
	}

	return msgs, nil
}

// resolvePath maps a folder name onto an mbox file. The default folder
// is the configured file; any other name addresses a sibling mbox file
// next to it.
func (b *Backend) resolvePath(folder string) string {
	if folder == "" || folder == "INBOX" {
		return b.opts.Path
	}
	if filepath.IsAbs(folder) || strings.ContainsRune(folder, os.PathSeparator) {
		return folder
	}
	if !strings.HasSuffix(folder, ".mbox") {
		folder += ".mbox"
	}
	return filepath.Join(filepath.Dir(b.opts.Path), folder)
}

// seenKey prefers the Message-Id header so seen state survives mbox
// rewrites; the sequence number is the fallback for messages without
// one.
func seenKey(path string, raw []byte, seq int) string {
	if msg, err := mail.ReadMessage(strings.NewReader(string(raw))); err == nil {
		id := strings.TrimSpace(msg.Header.Get("Message-Id"))
		if id == "" {
			id = strings.TrimSpace(msg.Header.Get("Message-ID"))
		}
		id = strings.Trim(id, " <>")
		if id != "" {
			return id
		}
	}
	return fmt.Sprintf("%s#%d", filepath.Base(path), seq)
}

func receivedAt(raw []byte) time.Time {
	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		return time.Time{}
	}
	if date := msg.Header.Get("Date"); date != "" {
		if t, err := mail.ParseDate(date); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseSequenceIDs(ids []string) ([]int, error) {
	seqs := make([]int, 0, len(ids))
	for _, id := range ids {
		seq, err := strconv.Atoi(id)
		if err != nil || seq < 1 {
			return nil, fmt.Errorf("invalid envelope id %q: expected a sequence number starting at 1", id)
		}
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

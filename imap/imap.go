package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"mailread/model"
)

type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
}

// Backend reads messages over IMAP. Envelope ids are message UIDs
// within the selected folder. A fetch without peek lets the server
// apply the \Seen flag; peek uses BODY.PEEK[] and leaves flags alone.
type Backend struct {
	opts   Options
	client *imapclient.Client
	logger *slog.Logger
}

// Connect dials the server and authenticates. The caller owns the
// returned backend and must Close it.
func Connect(opts Options, logger *slog.Logger) (*Backend, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap host is empty")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("imap port must be positive")
	}

	address := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	options := &imapclient.Options{}

	var (
		client *imapclient.Client
		err    error
	)

	if opts.UseTLS {
		options.TLSConfig = &tls.Config{
			ServerName:         opts.Host,
			InsecureSkipVerify: opts.InsecureSkipVerify,
		}
		client, err = imapclient.DialTLS(address, options)
	} else {
		client, err = imapclient.DialInsecure(address, options)
	}
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", address, err)
	}

	if err := client.Login(opts.Username, opts.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}

	if logger != nil {
		logger.Debug("imap connection established", "address", address, "user", opts.Username, "tls", opts.UseTLS)
	}

	return &Backend{opts: opts, client: client, logger: logger}, nil
}

func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	if err := b.client.Logout().Wait(); err != nil {
		if b.logger != nil {
			b.logger.Warn("imap logout failed", "err", err)
		}
	}
	return b.client.Close()
}

// GetMessages fetches the messages and applies the \Seen flag.
func (b *Backend) GetMessages(ctx context.Context, folder string, ids []string) ([]model.Message, error) {
	return b.fetch(ctx, folder, ids, false)
}

// PeekMessages fetches the messages without touching any flags.
func (b *Backend) PeekMessages(ctx context.Context, folder string, ids []string) ([]model.Message, error) {
	return b.fetch(ctx, folder, ids, true)
}

func (b *Backend) fetch(ctx context.Context, folder string, ids []string, peek bool) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if folder == "" {
		folder = "INBOX"
	}

	uids, err := parseUIDs(ids)
	if err != nil {
		return nil, err
	}

	if _, err := b.client.Select(folder, nil).Wait(); err != nil {
		return nil, fmt.Errorf("select %s: %w", folder, err)
	}

	bodySection := &imapv2.FetchItemBodySection{Peek: peek}
	fetchOpts := &imapv2.FetchOptions{
		UID:          true,
		InternalDate: true,
		BodySection:  []*imapv2.FetchItemBodySection{bodySection},
	}

	fetchCmd := b.client.Fetch(imapv2.UIDSetNum(uids...), fetchOpts)
	defer fetchCmd.Close()

	byUID := make(map[imapv2.UID]model.Message, len(uids))
	var extras []model.Message
	requested := make(map[imapv2.UID]bool, len(uids))
	for _, uid := range uids {
		requested[uid] = true
	}

	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			return nil, fmt.Errorf("collect message: %w", err)
		}

		raw := buf.FindBodySection(bodySection)
		converted := model.Message{
			Raw:        raw,
			ReceivedAt: buf.InternalDate,
			Size:       int64(len(raw)),
		}

		if requested[buf.UID] {
			byUID[buf.UID] = converted
		} else {
			extras = append(extras, converted)
		}
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	msgs, err := orderByRequest(uids, byUID, extras, folder)
	if err != nil {
		return nil, err
	}

	if b.logger != nil {
		b.logger.Debug("imap fetch completed", "folder", folder, "requested", len(uids), "returned", len(msgs), "peek", peek)
	}

	return msgs, nil
}

// orderByRequest reassembles fetched messages into requested-uid order,
// with unrequested extras appended after. A requested uid the server
// did not return is an error: dropping it would shift the remaining
// messages under the wrong envelope ids.
func orderByRequest(uids []imapv2.UID, byUID map[imapv2.UID]model.Message, extras []model.Message, folder string) ([]model.Message, error) {
	msgs := make([]model.Message, 0, len(byUID)+len(extras))
	for _, uid := range uids {
		msg, ok := byUID[uid]
		if !ok {
			return nil, fmt.Errorf("uid %d not found in %s", uid, folder)
		}
		msgs = append(msgs, msg)
	}
	return append(msgs, extras...), nil
}

func parseUIDs(ids []string) ([]imapv2.UID, error) {
	uids := make([]imapv2.UID, 0, len(ids))
	for _, id := range ids {
		value, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid envelope id %q: %w", id, err)
		}
		uids = append(uids, imapv2.UID(value))
	}
	return uids, nil
}

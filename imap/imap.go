// Package imap implements the mail source against an IMAP mailbox.
package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mholdt/mail-archiver/model"
)

type Options struct {
	Host               string
	Port               int
	Username           string
	Password           string
	UseTLS             bool
	InsecureSkipVerify bool
	Mailbox            string
}

type Source struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) (*Source, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap: host is empty")
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("imap: port must be positive")
	}
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}
	return &Source{opts: opts, logger: logger}, nil
}

// Search selects the mailbox read-only and runs UID SEARCH SINCE. The
// query fragment has no IMAP counterpart and is ignored; SINCE works
// at day granularity, so callers must re-filter by receipt time.
func (s *Source) Search(ctx context.Context, query string, after time.Time) ([]model.Message, error) {
	if query != "" && s.logger != nil {
		s.logger.Debug("imap source ignores the query fragment", "query", query)
	}

	client, cleanup, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, err := client.Select(s.opts.Mailbox, &imapv2.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("imap: select %s: %w", s.opts.Mailbox, err)
	}

	criteria := &imapv2.SearchCriteria{Since: after}
	data, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap: search since %s: %w", after.Format("2006-01-02"), err)
	}

	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	section := &imapv2.FetchItemBodySection{}
	fetchOptions := &imapv2.FetchOptions{
		Envelope:     true,
		InternalDate: true,
		BodySection:  []*imapv2.FetchItemBodySection{section},
	}

	buffers, err := client.Fetch(imapv2.UIDSetNum(uids...), fetchOptions).Collect()
	if err != nil {
		return nil, fmt.Errorf("imap: fetch %d messages: %w", len(uids), err)
	}

	out := make([]model.Message, 0, len(buffers))
	for _, buf := range buffers {
		raw := buf.FindBodySection(section)
		if raw == nil {
			return nil, fmt.Errorf("imap: uid %d returned no body", buf.UID)
		}

		id := ""
		subject := ""
		if buf.Envelope != nil {
			id = buf.Envelope.MessageID
			subject = buf.Envelope.Subject
		}
		if id == "" {
			id = fmt.Sprintf("%s/%d", s.opts.Mailbox, buf.UID)
		}

		out = append(out, model.Message{
			ID:         id,
			ReceivedAt: buf.InternalDate,
			Subject:    subject,
			Raw:        raw,
			Hash:       model.HashRaw(raw),
		})
	}
	return out, nil
}

func (s *Source) dial(ctx context.Context) (*imapclient.Client, func(), error) {
	address := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	options := &imapclient.Options{}

	if s.opts.UseTLS {
		options.TLSConfig = &tls.Config{
			ServerName:         s.opts.Host,
			InsecureSkipVerify: s.opts.InsecureSkipVerify,
		}
	}

	var (
		client *imapclient.Client
		err    error
	)
	if s.opts.UseTLS {
		client, err = imapclient.DialTLS(address, options)
	} else {
		client, err = imapclient.DialInsecure(address, options)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("imap: dial %s: %w", address, err)
	}

	if err := client.Login(s.opts.Username, s.opts.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("imap: login failed: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("imap connection established", "address", address, "user", s.opts.Username, "mailbox", s.opts.Mailbox, "tls", s.opts.UseTLS)
	}

	stopClose := context.AfterFunc(ctx, func() {
		_ = client.Close()
	})

	cleanup := func() {
		stopClose()
		if ctx.Err() == nil {
			if err := client.Logout().Wait(); err != nil && s.logger != nil {
				s.logger.Warn("imap logout failed", "err", err)
			}
		}
		if err := client.Close(); err != nil && s.logger != nil {
			s.logger.Debug("imap connection closed", "err", err)
		}
	}

	return client, cleanup, nil
}

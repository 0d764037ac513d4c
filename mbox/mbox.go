// Package mbox implements the mail source over a local mbox export,
// for archiving runs that never touch a live mailbox.
package mbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/mholdt/mail-archiver/model"
)

type Source struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) (*Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("mbox: path is empty")
	}
	return &Source{path: path, logger: logger}, nil
}

// Search streams the mbox file once and returns every message received
// on or after the day of the lower bound. Like the live sources this
// filter is day-coarse; callers re-filter strictly. Messages that fail
// to decode are logged and dropped rather than failing the whole file.
func (s *Source) Search(ctx context.Context, query string, after time.Time) ([]model.Message, error) {
	if query != "" && s.logger != nil {
		s.logger.Debug("mbox source ignores the query fragment", "query", query)
	}

	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("mbox: open %s: %w", s.path, err)
	}
	defer file.Close()

	coarseBound := after.Truncate(24 * time.Hour)

	var out []model.Message
	reader := mboxlib.NewReader(file)
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgReader, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("mbox: read message %d: %w", index, err)
		}

		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return nil, fmt.Errorf("mbox: read message %d body: %w", index, err)
		}

		headers, err := model.ReadHeaders(raw)
		if err != nil && s.logger != nil {
			s.logger.Warn("mbox message has a malformed header block", "index", index, "err", err)
		}
		if headers.Date.IsZero() {
			if s.logger != nil {
				s.logger.Warn("mbox message has no usable date, dropping", "index", index, "messageID", headers.MessageID)
			}
			continue
		}
		if headers.Date.Before(coarseBound) {
			continue
		}

		id := headers.MessageID
		if id == "" {
			id = fmt.Sprintf("%s#%d", s.path, index)
		}

		out = append(out, model.Message{
			ID:         id,
			ReceivedAt: headers.Date,
			Subject:    headers.Subject,
			Raw:        raw,
			Hash:       model.HashRaw(raw),
		})
	}
}

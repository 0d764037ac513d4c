// Package gmail implements the mail source against the Gmail REST API.
// This is the source the configured filter fragment is written for: it
// is passed through as a Gmail search query with an appended
// after:<epoch> lower bound.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mholdt/mail-archiver/model"
)

const gmailUser = "me"

type Options struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

type Source struct {
	svc    *gmailapi.Service
	logger *slog.Logger
}

// New builds a Gmail source from OAuth credentials. Tokens are
// supplied externally; no interactive flow is performed.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Source, error) {
	if opts.AccessToken == "" && opts.RefreshToken == "" {
		return nil, fmt.Errorf("gmail: an access or refresh token is required")
	}

	token := &oauth2.Token{
		AccessToken:  opts.AccessToken,
		RefreshToken: opts.RefreshToken,
		TokenType:    "Bearer",
	}
	if opts.RefreshToken != "" {
		// Force a refresh on first use so a stale access token does
		// not poison the whole run.
		token.Expiry = time.Now()
	}

	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint:     google.Endpoint,
	}

	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("gmail: create service: %w", err)
	}

	return &Source{svc: svc, logger: logger}, nil
}

// TokenSource exposes the same credentials for collaborators that also
// talk to Google APIs (the Drive store).
func TokenSource(ctx context.Context, opts Options) oauth2.TokenSource {
	token := &oauth2.Token{
		AccessToken:  opts.AccessToken,
		RefreshToken: opts.RefreshToken,
		TokenType:    "Bearer",
	}
	if opts.RefreshToken != "" {
		token.Expiry = time.Now()
	}
	conf := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Endpoint:     google.Endpoint,
	}
	return conf.TokenSource(ctx, token)
}

func (s *Source) Search(ctx context.Context, query string, after time.Time) ([]model.Message, error) {
	q := strings.TrimSpace(fmt.Sprintf("%s after:%d", strings.TrimSpace(query), after.Unix()))

	var ids []string
	pageToken := ""
	for {
		call := s.svc.Users.Messages.List(gmailUser).Q(q).MaxResults(500).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("gmail: list messages: %w", err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if s.logger != nil {
		s.logger.Debug("gmail search complete", "query", q, "matches", len(ids))
	}

	out := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		msg, err := s.fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *Source) fetch(ctx context.Context, id string) (model.Message, error) {
	full, err := s.svc.Users.Messages.Get(gmailUser, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return model.Message{}, fmt.Errorf("gmail: fetch message %s: %w", id, err)
	}

	raw, err := base64.URLEncoding.DecodeString(full.Raw)
	if err != nil {
		return model.Message{}, fmt.Errorf("gmail: decode message %s: %w", id, err)
	}

	// Subject comes out of the raw header block; receipt time comes
	// from Gmail's InternalDate, which is what the watermark tracks.
	headers, _ := model.ReadHeaders(raw)

	return model.Message{
		ID:         full.Id,
		ReceivedAt: time.Unix(full.InternalDate/1000, 0),
		Subject:    headers.Subject,
		Raw:        raw,
		Hash:       model.HashRaw(raw),
	}, nil
}

package mailbox

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"net/mail"
	"os"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Mounikaran/wall-e-mail/internal/model"
	"github.com/Mounikaran/wall-e-mail/internal/rate"
)

// batchSize is the Gmail list page size. The API caps batch operations
// at 500; 100 keeps individual page fetches cheap.
const batchSize = 100

const unreadLabel = "UNREAD"
const inboxLabel = "INBOX"

// GmailConfig holds what is needed to build an authenticated client.
type GmailConfig struct {
	CredentialsPath string
	TokenPath       string
	// RPS limits outbound API calls per second. Zero disables limiting.
	RPS int
}

// Gmail implements Service against the Gmail API.
type Gmail struct {
	svc     *gmail.Service
	limiter rate.Limiter
	log     *slog.Logger

	// labels caches label IDs by lowercased name, refreshed when a
	// label is created.
	labels map[string]string
}

// NewGmail builds an authenticated Gmail client. A missing or invalid
// token file is a construction error; this is the only fatal failure
// mode of the adapter.
func NewGmail(ctx context.Context, cfg GmailConfig, log *slog.Logger) (*Gmail, error) {
	creds, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(creds, gmail.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := readToken(cfg.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token (run an OAuth flow to create it): %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	var limiter rate.Limiter = rate.Unlimited{}
	if cfg.RPS > 0 {
		limiter = rate.NewTokenBucket(cfg.RPS)
	}

	g := &Gmail{svc: svc, limiter: limiter, log: log}
	if err := g.loadLabels(ctx); err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	return g, nil
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &tok, nil
}

func (g *Gmail) loadLabels(ctx context.Context) error {
	res, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return err
	}
	g.labels = make(map[string]string, len(res.Labels))
	for _, l := range res.Labels {
		g.labels[strings.ToLower(l.Name)] = l.Id
	}
	return nil
}

// FetchBatches pages through the mailbox and yields batches of parsed
// messages. The sequence ends when pagination is exhausted, MaxResults
// is reached, or a fetch error occurs (logged, not surfaced).
func (g *Gmail) FetchBatches(ctx context.Context, opts FetchOptions) iter.Seq[[]model.Email] {
	return func(yield func([]model.Email) bool) {
		query := buildQuery(opts, time.Now())
		fetched := 0
		pageToken := ""

		for {
			if err := g.limiter.Wait(ctx); err != nil {
				return
			}
			call := g.svc.Users.Messages.List("me").Q(query).MaxResults(batchSize)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			res, err := call.Context(ctx).Do()
			if err != nil {
				g.log.Error("list messages", "query", query, "error", err)
				return
			}
			if len(res.Messages) == 0 {
				g.log.Info("no more messages", "query", query)
				return
			}

			batch := make([]model.Email, 0, len(res.Messages))
			for _, m := range res.Messages {
				if opts.MaxResults > 0 && fetched >= opts.MaxResults {
					break
				}
				e, err := g.getEmail(ctx, m.Id)
				if err != nil {
					g.log.Error("fetch message", "id", m.Id, "error", err)
					continue
				}
				batch = append(batch, e)
				fetched++
			}

			if len(batch) > 0 && !yield(batch) {
				return
			}
			if opts.MaxResults > 0 && fetched >= opts.MaxResults {
				return
			}
			pageToken = res.NextPageToken
			if pageToken == "" {
				return
			}
		}
	}
}

func (g *Gmail) getEmail(ctx context.Context, id string) (model.Email, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return model.Email{}, err
	}
	msg, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return model.Email{}, err
	}

	headers := make(map[string]string, len(msg.Payload.Headers))
	for _, h := range msg.Payload.Headers {
		headers[strings.ToLower(h.Name)] = h.Value
	}

	received, err := mail.ParseDate(headers["date"])
	if err != nil {
		return model.Email{}, fmt.Errorf("parse date %q: %w", headers["date"], err)
	}

	return model.Email{
		ID:         id,
		Sender:     headers["from"],
		Recipient:  headers["to"],
		Subject:    headers["subject"],
		Body:       extractBody(msg.Payload),
		Labels:     msg.LabelIds,
		ReceivedAt: received,
		Read:       !slices.Contains(msg.LabelIds, unreadLabel),
	}, nil
}

// SetRead marks a message read or unread by toggling the UNREAD label.
func (g *Gmail) SetRead(ctx context.Context, id string, read bool) error {
	req := &gmail.ModifyMessageRequest{}
	if read {
		req.RemoveLabelIds = []string{unreadLabel}
	} else {
		req.AddLabelIds = []string{unreadLabel}
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := g.svc.Users.Messages.Modify("me", id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("set read %s: %w", id, err)
	}
	return nil
}

// MoveToLabel applies the named label (creating it if needed) and
// removes the message from the inbox.
func (g *Gmail) MoveToLabel(ctx context.Context, id, label string) error {
	labelID, err := g.ensureLabel(ctx, label)
	if err != nil {
		return err
	}
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    []string{labelID},
		RemoveLabelIds: []string{inboxLabel},
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := g.svc.Users.Messages.Modify("me", id, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("move %s to %q: %w", id, label, err)
	}
	return nil
}

// ensureLabel returns the ID for a label name, creating the label when
// it does not exist. Lookup is case-insensitive.
func (g *Gmail) ensureLabel(ctx context.Context, name string) (string, error) {
	if id, ok := g.labels[strings.ToLower(name)]; ok {
		return id, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	created, err := g.svc.Users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", name, err)
	}
	g.labels[strings.ToLower(name)] = created.Id
	return created.Id, nil
}

// buildQuery forms the Gmail search query for a fetch run.
func buildQuery(opts FetchOptions, now time.Time) string {
	var parts []string
	if opts.Days > 0 {
		parts = append(parts, "after:"+now.AddDate(0, 0, -opts.Days).Format("2006/01/02"))
	}
	if opts.OnlyUnread {
		parts = append(parts, "is:unread")
	}
	return strings.Join(parts, " ")
}

var _ Service = (*Gmail)(nil)

// Package gmail searches mail with the Gmail API.
package gmail

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"

	"github.com/tkgathr2/bulk/internal/adapters/driven/connectors"
	"github.com/tkgathr2/bulk/internal/adapters/driven/connectors/google"
	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

const (
	// MaxPages bounds messages.list pagination per search.
	MaxPages = 5

	// metadataConcurrency bounds concurrent messages.get calls.
	metadataConcurrency = 5

	maxPageSize = 500
)

// Config holds configuration for the Gmail connector.
type Config struct {
	// Endpoint overrides the API base, e.g. for tests.
	Endpoint   string
	HTTPClient *http.Client
	Limiter    *connectors.RateLimiter
	Logger     *slog.Logger
}

// Connector searches the signed-in user's mailbox.
type Connector struct {
	service google.ServiceConfig
	limiter *connectors.RateLimiter
	logger  *slog.Logger
}

// New creates a Gmail connector.
func New(cfg Config) *Connector {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = connectors.NewRateLimiter(domain.ServiceGmail)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		service: google.ServiceConfig{Endpoint: cfg.Endpoint, HTTPClient: cfg.HTTPClient},
		limiter: limiter,
		logger:  logger.With("connector", "gmail"),
	}
}

// Service returns the service this connector searches.
func (c *Connector) Service() domain.ServiceID {
	return domain.ServiceGmail
}

// Search lists matching message ids, then fetches each message's headers.
func (c *Connector) Search(ctx context.Context, accessToken string, req domain.SearchRequest) *domain.ServiceResult {
	if res := c.limiter.Admit(ctx, domain.ServiceGmail); res != nil {
		return res
	}

	svc, err := google.NewGmailService(ctx, google.NewTokenSource(accessToken), c.service)
	if err != nil {
		return connectors.UnknownError(domain.ServiceGmail, err.Error())
	}

	want := req.Offset + req.Limit
	query := BuildQuery(req)

	var (
		refs      []*gmail.Message
		pageToken string
		estimate  int64
	)
	for page := 0; page < MaxPages && len(refs) < want; page++ {
		call := svc.Users.Messages.List("me").
			Q(query).
			MaxResults(int64(min(want-len(refs), maxPageSize))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return google.ErrorResult(domain.ServiceGmail, err, c.limiter)
		}
		if page == 0 {
			estimate = resp.ResultSizeEstimate
		}
		refs = append(refs, resp.Messages...)
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if req.Offset >= len(refs) {
		refs = nil
	} else {
		refs = refs[req.Offset:]
	}
	if len(refs) > req.Limit {
		refs = refs[:req.Limit]
	}

	fetched, err := c.fetchMetadata(ctx, svc, refs)
	if err != nil {
		return google.ErrorResult(domain.ServiceGmail, err, c.limiter)
	}
	items := connectors.FilterByDate(fetched, req)

	total := int(estimate) - (len(fetched) - len(items))
	if total < req.Offset+len(items) {
		total = req.Offset + len(items)
	}
	more := pageToken != "" || total > req.Offset+len(items)
	return domain.SuccessResult(items, total, more)
}

// fetchMetadata loads Subject/From/To for each message, preserving order.
// Messages deleted between list and get are skipped.
func (c *Connector) fetchMetadata(ctx context.Context, svc *gmail.Service, refs []*gmail.Message) ([]domain.ResultItem, error) {
	results := make([]*domain.ResultItem, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataConcurrency)

	var mu sync.Mutex
	skipped := 0
	for i, ref := range refs {
		g.Go(func() error {
			msg, err := svc.Users.Messages.Get("me", ref.Id).
				Format("metadata").
				MetadataHeaders("Subject", "From", "To").
				Context(gctx).
				Do()
			if err != nil {
				if google.IsNotFound(err) {
					mu.Lock()
					skipped++
					mu.Unlock()
					return nil
				}
				return err
			}
			item := toResultItem(ref, msg)
			results[i] = &item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.Debug("messages vanished between list and get", "count", skipped)
	}

	items := make([]domain.ResultItem, 0, len(results))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

// fileTypeOperators maps file types to Gmail attachment search operators.
var fileTypeOperators = map[domain.FileType]string{
	domain.FileTypeDocument:     "has:attachment (filename:doc OR filename:docx)",
	domain.FileTypeSpreadsheet:  "has:attachment (filename:xls OR filename:xlsx OR filename:csv)",
	domain.FileTypePresentation: "has:attachment (filename:ppt OR filename:pptx)",
	domain.FileTypePDF:          "has:attachment filename:pdf",
	domain.FileTypeImage:        "has:attachment (filename:jpg OR filename:jpeg OR filename:png OR filename:gif)",
	domain.FileTypeVideo:        "has:attachment (filename:mp4 OR filename:mov)",
	domain.FileTypeAudio:        "has:attachment (filename:mp3 OR filename:wav)",
	domain.FileTypeArchive:      "has:attachment filename:zip",
	domain.FileTypeText:         "has:attachment filename:txt",
}

// BuildQuery translates the request into Gmail search syntax.
// Date bounds are epoch seconds: Gmail reads YYYY/MM/DD in Pacific time.
// Both operators are exclusive, so after: names the second before date_from
// and before: the first second after date_to.
func BuildQuery(req domain.SearchRequest) string {
	parts := []string{req.Query}
	if from, to, err := req.DateRange(); err == nil {
		if from != nil {
			parts = append(parts, "after:"+strconv.FormatInt(from.Unix()-1, 10))
		}
		if to != nil {
			parts = append(parts, "before:"+strconv.FormatInt(to.Unix()+1, 10))
		}
	}
	if op, ok := fileTypeOperators[req.FileType]; ok {
		parts = append(parts, op)
	}
	return strings.Join(parts, " ")
}

func toResultItem(ref, msg *gmail.Message) domain.ResultItem {
	var subject, from, to string
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				subject = h.Value
			case "From":
				from = h.Value
			case "To":
				to = h.Value
			}
		}
	}
	if subject == "" {
		subject = "(no subject)"
	}

	var updatedAt *string
	if msg.InternalDate > 0 {
		updatedAt = domain.TimestampPtr(time.UnixMilli(msg.InternalDate))
	}
	labels := msg.LabelIds
	if labels == nil {
		labels = []string{}
	}
	threadID := ref.ThreadId
	if threadID == "" {
		threadID = msg.ThreadId
	}

	return domain.ResultItem{
		ID:        "gmail-" + ref.Id,
		Service:   domain.ServiceGmail,
		Title:     subject,
		Snippet:   domain.OptionalString(msg.Snippet),
		UpdatedAt: updatedAt,
		Author:    domain.OptionalString(from),
		URL:       "https://mail.google.com/mail/u/0/#inbox/" + ref.Id,
		Kind:      domain.KindEmail,
		From:      from,
		To:        to,
		Subject:   subject,
		RawMetadata: map[string]any{
			"message_id":    ref.Id,
			"thread_id":     threadID,
			"label_ids":     labels,
			"size_estimate": msg.SizeEstimate,
			"history_id":    msg.HistoryId,
		},
	}
}

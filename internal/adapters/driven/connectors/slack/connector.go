// Package slack searches workspace messages through the Slack Web API.
package slack

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/tkgathr2/bulk/internal/adapters/driven/connectors"
	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Config holds configuration for the Slack connector.
type Config struct {
	// APIURL overrides the Web API base, e.g. for tests. Must end with "/".
	APIURL string

	HTTPClient *http.Client
	Limiter    *connectors.RateLimiter
	Logger     *slog.Logger
}

// Connector searches messages with search.messages using a user token.
type Connector struct {
	apiURL     string
	httpClient *http.Client
	limiter    *connectors.RateLimiter
	logger     *slog.Logger
}

// New creates a Slack connector.
func New(cfg Config) *Connector {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = slack.APIURL
	}
	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = connectors.NewRateLimiter(domain.ServiceSlack)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		apiURL:     apiURL,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.With("connector", "slack"),
	}
}

// Service returns the service this connector searches.
func (c *Connector) Service() domain.ServiceID {
	return domain.ServiceSlack
}

// Search runs one search.messages page for the request window.
func (c *Connector) Search(ctx context.Context, accessToken string, req domain.SearchRequest) *domain.ServiceResult {
	if res := c.limiter.Admit(ctx, domain.ServiceSlack); res != nil {
		return res
	}

	client := slack.New(accessToken,
		slack.OptionAPIURL(c.apiURL),
		slack.OptionHTTPClient(c.httpClient),
	)

	params := slack.SearchParameters{
		Sort:          "timestamp",
		SortDirection: "desc",
		Count:         req.Limit,
		Page:          req.Offset/req.Limit + 1,
	}
	resp, err := client.SearchMessagesContext(ctx, BuildQuery(req), params)
	if err != nil {
		return c.mapError(err)
	}

	items := make([]domain.ResultItem, 0, len(resp.Matches))
	for i, m := range resp.Matches {
		items = append(items, toResultItem(m, i))
	}
	items = connectors.FilterByDate(items, req)

	more := resp.Total > req.Offset+len(items)
	return domain.SuccessResult(items, resp.Total, more)
}

func (c *Connector) mapError(err error) *domain.ServiceResult {
	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		seconds := connectors.RetrySeconds(rateErr.RetryAfter)
		c.limiter.RecordRateLimitError(seconds)
		return connectors.RateLimited(domain.ServiceSlack, seconds)
	}

	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		if statusErr.Code == http.StatusTooManyRequests {
			c.limiter.RecordRateLimitError(0)
		}
		return connectors.StatusResult(domain.ServiceSlack, statusErr.Code, nil)
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		switch apiErr.Err {
		case "not_authed", "invalid_auth", "token_revoked", "account_inactive", "token_expired":
			return connectors.AuthRequired(domain.ServiceSlack)
		case "missing_scope", "no_permission":
			return connectors.Forbidden(domain.ServiceSlack)
		case "ratelimited":
			c.limiter.RecordRateLimitError(0)
			return connectors.RateLimited(domain.ServiceSlack, 0)
		}
		return connectors.UnknownError(domain.ServiceSlack, apiErr.Err)
	}

	if connectors.IsTransportError(err) {
		return connectors.NetworkError(domain.ServiceSlack, err)
	}
	c.logger.Warn("unexpected slack error", "error", err)
	return connectors.UnknownError(domain.ServiceSlack, err.Error())
}

// BuildQuery appends Slack date modifiers. Slack's after:/before: exclude
// the named day, so the window is widened by one day on each side and
// results are trimmed locally.
func BuildQuery(req domain.SearchRequest) string {
	var b strings.Builder
	b.WriteString(req.Query)
	from, to, err := req.DateRange()
	if err != nil {
		return b.String()
	}
	if from != nil {
		b.WriteString(" after:")
		b.WriteString(from.AddDate(0, 0, -1).Format(domain.DateLayout))
	}
	if to != nil {
		b.WriteString(" before:")
		b.WriteString(to.AddDate(0, 0, 1).Format(domain.DateLayout))
	}
	return b.String()
}

func toResultItem(m slack.SearchMessage, index int) domain.ResultItem {
	id := m.Timestamp
	if id == "" {
		id = strconv.Itoa(index)
	}
	channel := m.Channel.Name
	title := "#" + channel
	if channel == "" {
		title = "#unknown"
	}
	author := m.Username
	if author == "" {
		author = m.User
	}

	return domain.ResultItem{
		ID:          "slack-" + id,
		Service:     domain.ServiceSlack,
		Title:       title,
		Snippet:     domain.OptionalString(m.Text),
		UpdatedAt:   timestampFromTS(m.Timestamp),
		Author:      domain.OptionalString(author),
		URL:         m.Permalink,
		Kind:        domain.KindMessage,
		ChannelName: channel,
		RawMetadata: map[string]any{
			"type":         m.Type,
			"ts":           m.Timestamp,
			"channel_id":   m.Channel.ID,
			"channel_name": channel,
		},
	}
}

// timestampFromTS converts a Slack "seconds.micros" ts to a timestamp.
func timestampFromTS(ts string) *string {
	if ts == "" {
		return nil
	}
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return nil
	}
	return domain.TimestampPtr(time.UnixMilli(int64(f * 1000)))
}

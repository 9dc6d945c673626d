package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

func newTestConnector(t *testing.T, handler http.HandlerFunc) (*Connector, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIURL: srv.URL + "/", HTTPClient: srv.Client()}), srv
}

func searchRequest(query string) domain.SearchRequest {
	req := domain.SearchRequest{Query: query}
	req.Normalize()
	return req
}

const searchBody = `{
  "ok": true,
  "query": "budget",
  "messages": {
    "total": 42,
    "matches": [
      {
        "type": "message",
        "ts": "1736676000.000100",
        "text": "Q1 budget draft",
        "username": "alice",
        "permalink": "https://acme.slack.com/archives/C1/p1736676000000100",
        "channel": {"id": "C1", "name": "finance"}
      },
      {
        "type": "message",
        "ts": "1736589600.000200",
        "text": "budget approved",
        "user": "U2",
        "permalink": "https://acme.slack.com/archives/C2/p1736589600000200",
        "channel": {"id": "C2", "name": "general"}
      }
    ],
    "paging": {"count": 20, "total": 42, "page": 1, "pages": 3}
  }
}`

func TestConnector_Search(t *testing.T) {
	var gotQuery, gotToken, gotSort, gotCount string
	c, _ := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search.messages", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("query")
		gotToken = r.PostForm.Get("token")
		gotSort = r.PostForm.Get("sort")
		gotCount = r.PostForm.Get("count")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchBody)
	})

	res := c.Search(context.Background(), "xoxp-1", searchRequest("budget"))
	require.True(t, res.Valid())

	assert.Equal(t, "budget", gotQuery)
	assert.Equal(t, "xoxp-1", gotToken)
	assert.Equal(t, "timestamp", gotSort)
	assert.Equal(t, "", gotCount, "default count of 20 is not sent")

	assert.Equal(t, domain.ResultPartial, res.Status)
	assert.Equal(t, 42, *res.Total)
	require.Len(t, res.Items, 2)

	first := res.Items[0]
	assert.Equal(t, "slack-1736676000.000100", first.ID)
	assert.Equal(t, "#finance", first.Title)
	assert.Equal(t, "Q1 budget draft", *first.Snippet)
	assert.Equal(t, "2025-01-12T10:00:00.000Z", *first.UpdatedAt)
	assert.Equal(t, "alice", *first.Author)
	assert.Equal(t, domain.KindMessage, first.Kind)
	assert.Equal(t, "finance", first.ChannelName)
	assert.Equal(t, "C1", first.RawMetadata["channel_id"])

	assert.Equal(t, "U2", *res.Items[1].Author)
}

func TestConnector_DateFilter(t *testing.T) {
	var gotQuery string
	c, _ := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.FormValue("query")
		fmt.Fprint(w, searchBody)
	})

	req := searchRequest("budget")
	req.DateFrom = "2025-01-12"
	req.DateTo = "2025-01-12"
	res := c.Search(context.Background(), "xoxp-1", req)

	assert.Equal(t, "budget after:2025-01-11 before:2025-01-13", gotQuery)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "slack-1736676000.000100", res.Items[0].ID)
}

func TestConnector_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    domain.ErrorCode
	}{
		{
			name: "invalid auth",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"ok": false, "error": "invalid_auth"}`)
			},
			want: domain.ErrorAuthRequired,
		},
		{
			name: "token revoked",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"ok": false, "error": "token_revoked"}`)
			},
			want: domain.ErrorAuthRequired,
		},
		{
			name: "missing scope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"ok": false, "error": "missing_scope"}`)
			},
			want: domain.ErrorForbidden,
		},
		{
			name: "other api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"ok": false, "error": "team_not_found"}`)
			},
			want: domain.ErrorUnknown,
		},
		{
			name: "http 401",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			want: domain.ErrorAuthRequired,
		},
		{
			name: "http 403",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			},
			want: domain.ErrorAuthRequired,
		},
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			want: domain.ErrorUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestConnector(t, tt.handler)
			res := c.Search(context.Background(), "xoxp-1", searchRequest("q"))
			assert.True(t, res.Valid())
			assert.Equal(t, tt.want, res.Code())
		})
	}
}

func TestConnector_RateLimitStartsCooldown(t *testing.T) {
	calls := 0
	c, _ := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	res := c.Search(context.Background(), "xoxp-1", searchRequest("q"))
	assert.Equal(t, domain.ErrorRateLimited, res.Code())
	assert.Contains(t, *res.ErrorMessage, "30")

	// The cooldown short-circuits without another provider call
	res = c.Search(context.Background(), "xoxp-1", searchRequest("q"))
	assert.Equal(t, domain.ErrorRateLimited, res.Code())
	assert.Equal(t, 1, calls)
}

func TestConnector_NetworkError(t *testing.T) {
	c, srv := newTestConnector(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	res := c.Search(context.Background(), "xoxp-1", searchRequest("q"))
	assert.Equal(t, domain.ErrorNetwork, res.Code())
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "plain", BuildQuery(domain.SearchRequest{Query: "plain"}))
	assert.Equal(t, "q after:2024-12-31", BuildQuery(domain.SearchRequest{Query: "q", DateFrom: "2025-01-01"}))
}


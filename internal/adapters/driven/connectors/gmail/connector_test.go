package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

type fakeGmail struct {
	listCalls atomic.Int32
	getCalls  atomic.Int32
	lastQuery atomic.Value
	pages     []string
	estimate  int
	status    int
	// dates overrides internalDate (ms) per message id
	dates map[string]string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer ya29.token" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.status != 0 {
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error": {"code": %d, "message": "failure"}}`, f.status)
		return
	}

	const base = "/gmail/v1/users/me/messages"
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == base:
		n := int(f.listCalls.Add(1))
		f.lastQuery.Store(r.URL.Query().Get("q"))
		var ids []map[string]string
		for _, id := range strings.Split(f.pages[n-1], ",") {
			ids = append(ids, map[string]string{"id": id, "threadId": "t-" + id})
		}
		resp := map[string]any{"messages": ids, "resultSizeEstimate": f.estimate}
		if n < len(f.pages) {
			resp["nextPageToken"] = fmt.Sprintf("page-%d", n+1)
		}
		_ = json.NewEncoder(w).Encode(resp)
	case strings.HasPrefix(r.URL.Path, base+"/"):
		f.getCalls.Add(1)
		id := strings.TrimPrefix(r.URL.Path, base+"/")
		internalDate := "1736676000000"
		if d, ok := f.dates[id]; ok {
			internalDate = d
		}
		if id == "gone" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error": {"code": 404, "message": "Not Found"}}`)
			return
		}
		fmt.Fprintf(w, `{
			"id": %q,
			"threadId": "t-%s",
			"labelIds": ["INBOX"],
			"snippet": "snippet of %s",
			"internalDate": %q,
			"sizeEstimate": 2048,
			"historyId": "991",
			"payload": {"headers": [
				{"name": "Subject", "value": "Subject %s"},
				{"name": "From", "value": "Hanako <hanako@example.com>"},
				{"name": "To", "value": "taro@example.com"}
			]}
		}`, id, id, id, internalDate, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestConnector(t *testing.T, fake *fakeGmail) *Connector {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(Config{Endpoint: srv.URL + "/", HTTPClient: srv.Client()})
}

func searchRequest(query string, limit int) domain.SearchRequest {
	req := domain.SearchRequest{Query: query, Limit: limit}
	req.Normalize()
	return req
}

func TestConnector_Search(t *testing.T) {
	fake := &fakeGmail{pages: []string{"m1,m2"}, estimate: 2}
	c := newTestConnector(t, fake)

	res := c.Search(context.Background(), "ya29.token", searchRequest("invoice", 20))
	require.True(t, res.Valid(), "%+v", res)
	assert.Equal(t, domain.ResultSuccess, res.Status)
	assert.Equal(t, 2, *res.Total)
	require.Len(t, res.Items, 2)

	item := res.Items[0]
	assert.Equal(t, "gmail-m1", item.ID)
	assert.Equal(t, "Subject m1", item.Title)
	assert.Equal(t, "Subject m1", item.Subject)
	assert.Equal(t, "snippet of m1", *item.Snippet)
	assert.Equal(t, "2025-01-12T10:00:00.000Z", *item.UpdatedAt)
	assert.Equal(t, "Hanako <hanako@example.com>", item.From)
	assert.Equal(t, "taro@example.com", item.To)
	assert.Equal(t, "https://mail.google.com/mail/u/0/#inbox/m1", item.URL)
	assert.Equal(t, domain.KindEmail, item.Kind)
	assert.Equal(t, "t-m1", item.RawMetadata["thread_id"])
	assert.Equal(t, "gmail-m2", res.Items[1].ID)
}

func TestConnector_FollowsPagesUpToLimit(t *testing.T) {
	fake := &fakeGmail{pages: []string{"a,b", "c,d", "e,f"}, estimate: 100}
	c := newTestConnector(t, fake)

	res := c.Search(context.Background(), "ya29.token", searchRequest("q", 3))
	require.True(t, res.Valid())
	assert.Equal(t, domain.ResultPartial, res.Status)
	assert.Equal(t, 100, *res.Total)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "gmail-c", res.Items[2].ID)
	assert.Equal(t, int32(2), fake.listCalls.Load())
	assert.Equal(t, int32(3), fake.getCalls.Load())
}

func TestConnector_StopsAtMaxPages(t *testing.T) {
	pages := make([]string, MaxPages+2)
	for i := range pages {
		pages[i] = fmt.Sprintf("p%d", i)
	}
	fake := &fakeGmail{pages: pages, estimate: 500}
	c := newTestConnector(t, fake)

	res := c.Search(context.Background(), "ya29.token", searchRequest("q", 50))
	require.True(t, res.Valid())
	assert.Equal(t, int32(MaxPages), fake.listCalls.Load())
	assert.Len(t, res.Items, MaxPages)
	assert.Equal(t, domain.ResultPartial, res.Status)
}

func TestConnector_SkipsVanishedMessages(t *testing.T) {
	fake := &fakeGmail{pages: []string{"m1,gone,m3"}, estimate: 3}
	c := newTestConnector(t, fake)

	res := c.Search(context.Background(), "ya29.token", searchRequest("q", 20))
	require.True(t, res.Valid())
	require.Len(t, res.Items, 2)
	assert.Equal(t, "gmail-m3", res.Items[1].ID)
}

func TestConnector_Errors(t *testing.T) {
	tests := []struct {
		status int
		want   domain.ErrorCode
	}{
		{http.StatusUnauthorized, domain.ErrorAuthRequired},
		{http.StatusForbidden, domain.ErrorAuthRequired},
		{http.StatusTooManyRequests, domain.ErrorRateLimited},
		{http.StatusInternalServerError, domain.ErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestConnector(t, &fakeGmail{status: tt.status})
			res := c.Search(context.Background(), "ya29.token", searchRequest("q", 20))
			assert.True(t, res.Valid())
			assert.Equal(t, tt.want, res.Code())
		})
	}
}

func TestConnector_RevokedToken(t *testing.T) {
	c := newTestConnector(t, &fakeGmail{pages: []string{"m1"}})
	res := c.Search(context.Background(), "revoked", searchRequest("q", 20))
	assert.Equal(t, domain.ErrorAuthRequired, res.Code())
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name string
		req  domain.SearchRequest
		want string
	}{
		{"plain", domain.SearchRequest{Query: "invoice"}, "invoice"},
		{
			"date range",
			domain.SearchRequest{Query: "invoice", DateFrom: "2025-01-01", DateTo: "2025-01-31"},
			"invoice after:1735689599 before:1738368000",
		},
		{
			"open-ended range",
			domain.SearchRequest{Query: "invoice", DateTo: "2025-01-31"},
			"invoice before:1738368000",
		},
		{
			"pdf",
			domain.SearchRequest{Query: "contract", FileType: domain.FileTypePDF},
			"contract has:attachment filename:pdf",
		},
		{"folder has no mail operator", domain.SearchRequest{Query: "q", FileType: domain.FileTypeFolder}, "q"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.req))
		})
	}
}

func TestConnector_DateRangeIsInclusiveUTC(t *testing.T) {
	fake := &fakeGmail{
		pages:    []string{"first,last,late"},
		estimate: 3,
		dates: map[string]string{
			"first": "1735689600000", // 2025-01-01T00:00:00.000Z
			"last":  "1738367999500", // 2025-01-31T23:59:59.500Z
			"late":  "1738378800000", // 2025-02-01T03:00:00.000Z
		},
	}
	c := newTestConnector(t, fake)

	req := domain.SearchRequest{Query: "q", DateFrom: "2025-01-01", DateTo: "2025-01-31", Limit: 20}
	req.Normalize()
	res := c.Search(context.Background(), "ya29.token", req)

	require.True(t, res.Valid(), "%+v", res)
	assert.Equal(t, "q after:1735689599 before:1738368000", fake.lastQuery.Load())
	require.Len(t, res.Items, 2)
	assert.Equal(t, "gmail-first", res.Items[0].ID)
	assert.Equal(t, "gmail-last", res.Items[1].ID)
	assert.Equal(t, 2, *res.Total)
}

package dropbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

type fakeDropbox struct {
	mu      sync.Mutex
	paths   []string
	args    []map[string]any
	pages   [][]map[string]any
	status  int
	body    string
	headers map[string]string
}

func (f *fakeDropbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer sl.token" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_summary": "invalid_access_token/"}`))
		return
	}

	var arg map[string]any
	_ = json.NewDecoder(r.Body).Decode(&arg)
	f.paths = append(f.paths, r.URL.Path)
	f.args = append(f.args, arg)

	if f.status != 0 {
		for k, v := range f.headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
		return
	}

	n := len(f.paths)
	resp := map[string]any{"matches": f.pages[n-1], "has_more": n < len(f.pages)}
	if n < len(f.pages) {
		resp["cursor"] = fmt.Sprintf("cursor-%d", n)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func fileMatch(name, path, modified string) map[string]any {
	return map[string]any{
		"match_type": map[string]string{".tag": "filename"},
		"metadata": map[string]any{
			".tag": "metadata",
			"metadata": map[string]any{
				".tag":            "file",
				"id":              "id:" + name,
				"name":            name,
				"path_display":    path,
				"server_modified": modified,
				"size":            2048,
			},
		},
	}
}

func folderMatch(name, path string) map[string]any {
	return map[string]any{
		"metadata": map[string]any{
			".tag": "metadata",
			"metadata": map[string]any{
				".tag":         "folder",
				"id":           "id:" + name,
				"name":         name,
				"path_display": path,
			},
		},
	}
}

func newTestConnector(t *testing.T, fake *fakeDropbox) *Connector {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return New(Config{APIURL: srv.URL, HTTPClient: srv.Client()})
}

func searchRequest(query string, limit int) domain.SearchRequest {
	req := domain.SearchRequest{Query: query, Limit: limit}
	req.Normalize()
	return req
}

func TestConnector_Search(t *testing.T) {
	fake := &fakeDropbox{pages: [][]map[string]any{{
		fileMatch("budget.pdf", "/Finance/2025/budget.pdf", "2025-01-12T10:00:00Z"),
		folderMatch("Budget", "/Finance/Budget"),
	}}}
	c := newTestConnector(t, fake)

	res := c.Search(context.Background(), "sl.token", searchRequest("budget", 20))
	require.Equal(t, domain.ResultSuccess, res.Status)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 2, *res.Total)

	file := res.Items[0]
	assert.Equal(t, "dbx-id:budget.pdf", file.ID)
	assert.Equal(t, domain.ServiceDropbox, file.Service)
	assert.Equal(t, "budget.pdf", file.Title)
	assert.Equal(t, "https://www.dropbox.com/preview/Finance/2025/budget.pdf", file.URL)
	assert.Equal(t, "/Finance/2025/", file.Path)
	assert.Equal(t, "application/pdf", file.MimeType)
	require.NotNil(t, file.FileSize)
	assert.EqualValues(t, 2048, *file.FileSize)
	require.NotNil(t, file.Snippet)
	assert.Equal(t, "PDF — /Finance/2025/", *file.Snippet)
	require.NotNil(t, file.UpdatedAt)

	folder := res.Items[1]
	assert.Equal(t, "フォルダ — /Finance/", *folder.Snippet)
	assert.Empty(t, folder.MimeType)

	require.Len(t, fake.paths, 1)
	assert.Equal(t, "/2/files/search_v2", fake.paths[0])
	assert.Equal(t, "budget", fake.args[0]["query"])
	opts := fake.args[0]["options"].(map[string]any)
	assert.Equal(t, false, opts["filename_only"])
	assert.Equal(t, "active", opts["file_status"].(map[string]any)[".tag"])
	assert.NotContains(t, opts, "file_categories")
}

func TestConnector_SearchFileType(t *testing.T) {
	fake := &fakeDropbox{pages: [][]map[string]any{{
		fileMatch("budget.pdf", "/budget.pdf", "2025-01-12T10:00:00Z"),
		folderMatch("Budget", "/Budget"),
	}}}
	c := newTestConnector(t, fake)

	req := searchRequest("budget", 20)
	req.FileType = domain.FileTypePDF
	res := c.Search(context.Background(), "sl.token", req)

	require.Equal(t, domain.ResultSuccess, res.Status)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "budget.pdf", res.Items[0].Title)

	opts := fake.args[0]["options"].(map[string]any)
	cats := opts["file_categories"].([]any)
	assert.Equal(t, "pdf", cats[0].(map[string]any)[".tag"])
}

func TestConnector_SearchDateFilter(t *testing.T) {
	fake := &fakeDropbox{pages: [][]map[string]any{{
		fileMatch("new.txt", "/new.txt", "2025-01-12T10:00:00Z"),
		fileMatch("old.txt", "/old.txt", "2024-06-01T10:00:00Z"),
	}}}
	c := newTestConnector(t, fake)

	req := searchRequest("notes", 20)
	req.DateFrom = "2025-01-01"
	res := c.Search(context.Background(), "sl.token", req)

	require.Equal(t, domain.ResultSuccess, res.Status)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "new.txt", res.Items[0].Title)
}

func TestConnector_SearchContinues(t *testing.T) {
	fake := &fakeDropbox{pages: [][]map[string]any{
		{fileMatch("a.txt", "/a.txt", "2025-01-12T10:00:00Z")},
		{fileMatch("b.txt", "/b.txt", "2025-01-12T10:00:00Z")},
		{fileMatch("c.txt", "/c.txt", "2025-01-12T10:00:00Z")},
	}}
	c := newTestConnector(t, fake)

	res := c.Search(context.Background(), "sl.token", searchRequest("notes", 2))
	require.Equal(t, domain.ResultPartial, res.Status)
	require.Len(t, res.Items, 2)

	require.Len(t, fake.paths, 2)
	assert.Equal(t, "/2/files/search/continue_v2", fake.paths[1])
	assert.Equal(t, "cursor-1", fake.args[1]["cursor"])
}

func TestConnector_SearchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		headers map[string]string
		want    domain.ErrorCode
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error_summary": "expired_access_token/"}`, nil, domain.ErrorAuthRequired},
		{"forbidden", http.StatusForbidden, `{}`, nil, domain.ErrorAuthRequired},
		{"rate limited", http.StatusTooManyRequests, `{}`, map[string]string{"Retry-After": "30"}, domain.ErrorRateLimited},
		{"endpoint error", http.StatusConflict, `{"error_summary": "path/not_found/.."}`, nil, domain.ErrorUnknown},
		{"server error", http.StatusServiceUnavailable, `oops`, nil, domain.ErrorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDropbox{status: tt.status, body: tt.body, headers: tt.headers}
			c := newTestConnector(t, fake)

			res := c.Search(context.Background(), "sl.token", searchRequest("budget", 20))
			require.True(t, res.IsError())
			assert.Equal(t, tt.want, res.Code())
			assert.Empty(t, res.Items)
		})
	}
}

func TestConnector_EndpointErrorCarriesSummary(t *testing.T) {
	fake := &fakeDropbox{status: http.StatusConflict, body: `{"error_summary": "path/not_found/.."}`}
	c := newTestConnector(t, fake)

	res := c.Search(context.Background(), "sl.token", searchRequest("budget", 20))
	require.NotNil(t, res.ErrorMessage)
	assert.Contains(t, *res.ErrorMessage, "path/not_found")
}

func TestConnector_RateLimitCooldown(t *testing.T) {
	fake := &fakeDropbox{
		status:  http.StatusTooManyRequests,
		body:    `{"error_summary": "too_many_requests/"}`,
		headers: map[string]string{"Retry-After": "120"},
	}
	c := newTestConnector(t, fake)

	first := c.Search(context.Background(), "sl.token", searchRequest("budget", 20))
	second := c.Search(context.Background(), "sl.token", searchRequest("budget", 20))

	assert.Equal(t, domain.ErrorRateLimited, first.Code())
	assert.Equal(t, domain.ErrorRateLimited, second.Code())
	assert.Len(t, fake.paths, 1)
}

func TestConnector_InvalidToken(t *testing.T) {
	fake := &fakeDropbox{}
	c := newTestConnector(t, fake)

	res := c.Search(context.Background(), "revoked", searchRequest("budget", 20))
	assert.Equal(t, domain.ErrorAuthRequired, res.Code())
}

func TestParentFolder(t *testing.T) {
	assert.Equal(t, "/", parentFolder("/file.txt"))
	assert.Equal(t, "/a/b/", parentFolder("/a/b/file.txt"))
	assert.Equal(t, "/", parentFolder("file.txt"))
}

// Package dropbox searches file names and contents with Dropbox search_v2.
package dropbox

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tkgathr2/bulk/internal/adapters/driven/connectors"
	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

const (
	// MaxPages bounds search_v2 + continue_v2 calls per search.
	MaxPages = 5

	maxResultsPerPage = 1000
)

// Config holds configuration for the Dropbox connector.
type Config struct {
	// APIURL overrides the RPC host, e.g. for tests.
	APIURL     string
	HTTPClient *http.Client
	Limiter    *connectors.RateLimiter
	Logger     *slog.Logger
}

// Connector searches the user's Dropbox.
type Connector struct {
	apiURL     string
	httpClient *http.Client
	limiter    *connectors.RateLimiter
	logger     *slog.Logger
}

// New creates a Dropbox connector.
func New(cfg Config) *Connector {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = connectors.NewRateLimiter(domain.ServiceDropbox)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		apiURL:     apiURL,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.With("connector", "dropbox"),
	}
}

// Service returns the service this connector searches.
func (c *Connector) Service() domain.ServiceID {
	return domain.ServiceDropbox
}

// categories maps file types onto Dropbox file_categories.
// Types without a category are filtered locally by MIME type.
var categories = map[domain.FileType]string{
	domain.FileTypeDocument:     "document",
	domain.FileTypeSpreadsheet:  "spreadsheet",
	domain.FileTypePresentation: "presentation",
	domain.FileTypePDF:          "pdf",
	domain.FileTypeImage:        "image",
	domain.FileTypeAudio:        "audio",
	domain.FileTypeVideo:        "video",
	domain.FileTypeFolder:       "folder",
}

// Search runs search_v2 and follows continue_v2 cursors until the request
// window is filled.
func (c *Connector) Search(ctx context.Context, accessToken string, req domain.SearchRequest) *domain.ServiceResult {
	if res := c.limiter.Admit(ctx, domain.ServiceDropbox); res != nil {
		return res
	}

	want := req.Offset + req.Limit
	arg := searchArg{
		Query: req.Query,
		Options: searchOptions{
			MaxResults:   min(want, maxResultsPerPage),
			FileStatus:   tagged{Tag: "active"},
			FilenameOnly: false,
		},
	}
	if cat, ok := categories[req.FileType]; ok {
		arg.Options.FileCategories = []tagged{{Tag: cat}}
	}

	var (
		items   []domain.ResultItem
		hasMore bool
		cursor  string
	)
	for page := 0; page < MaxPages; page++ {
		var result searchResult
		var err error
		if page == 0 {
			err = rpc(ctx, c.httpClient, c.apiURL+"/2/files/search_v2", accessToken, arg, &result)
		} else {
			err = rpc(ctx, c.httpClient, c.apiURL+"/2/files/search/continue_v2", accessToken, continueArg{Cursor: cursor}, &result)
		}
		if err != nil {
			return c.mapError(err)
		}

		for _, m := range result.Matches {
			item, ok := toResultItem(m.Metadata.Metadata, req.FileType)
			if ok {
				items = append(items, item)
			}
		}
		items = connectors.FilterByDate(items, req)

		hasMore = result.HasMore && result.Cursor != ""
		cursor = result.Cursor
		if !hasMore || len(items) >= want {
			break
		}
	}

	if req.Offset >= len(items) {
		items = nil
	} else {
		items = items[req.Offset:]
	}
	more := hasMore
	if len(items) > req.Limit {
		items = items[:req.Limit]
		more = true
	}
	return domain.SuccessResult(items, req.Offset+len(items), more)
}

func (c *Connector) mapError(err error) *domain.ServiceResult {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusTooManyRequests:
			retryAfter := connectors.ParseRetryAfter(apiErr.Header)
			c.limiter.RecordRateLimitError(retryAfter)
			return connectors.RateLimited(domain.ServiceDropbox, retryAfter)
		case http.StatusConflict:
			// Endpoint-specific error; the summary names it
			detail := apiErr.ErrorSummary
			if detail == "" {
				detail = "409"
			}
			return connectors.UnknownError(domain.ServiceDropbox, detail)
		}
		return connectors.StatusResult(domain.ServiceDropbox, apiErr.Status, apiErr.Header)
	}
	if connectors.IsTransportError(err) {
		return connectors.NetworkError(domain.ServiceDropbox, err)
	}
	c.logger.Warn("unexpected dropbox error", "error", err)
	return connectors.UnknownError(domain.ServiceDropbox, err.Error())
}

// toResultItem converts an entry. Folders are kept only when no file type
// is requested or folders are.
func toResultItem(md *entryMetadata, fileType domain.FileType) (domain.ResultItem, bool) {
	if md == nil {
		return domain.ResultItem{}, false
	}
	isFolder := md.Tag == "folder"
	if md.Tag != "file" && !isFolder {
		return domain.ResultItem{}, false
	}
	if isFolder && fileType != "" && fileType != domain.FileTypeFolder {
		return domain.ResultItem{}, false
	}

	name := md.Name
	if name == "" {
		name = "Untitled"
	}

	var mimeType, label string
	if isFolder {
		label = connectors.FolderLabel
	} else {
		mimeType = connectors.MimeFromName(name)
		label = connectors.TypeLabel(mimeType)
		if _, native := categories[fileType]; !native && fileType != domain.FileTypeOther &&
			!connectors.MatchesFileType(mimeType, fileType) {
			return domain.ResultItem{}, false
		}
	}

	folder := parentFolder(md.PathDisplay)
	snippet := label + " — " + folder

	item := domain.ResultItem{
		ID:       "dbx-" + md.ID,
		Service:  domain.ServiceDropbox,
		Title:    name,
		Snippet:  &snippet,
		URL:      "https://www.dropbox.com/preview" + md.PathDisplay,
		Kind:     domain.KindFile,
		Path:     folder,
		MimeType: mimeType,
		FileSize: md.Size,
		RawMetadata: map[string]any{
			"type":         md.Tag,
			"path_display": md.PathDisplay,
			"type_label":   label,
		},
	}
	if md.ServerModified != "" {
		if t, err := time.Parse(time.RFC3339, md.ServerModified); err == nil {
			item.UpdatedAt = domain.TimestampPtr(t)
		}
	}
	return item, true
}

// parentFolder returns the directory of a path, with a trailing slash.
func parentFolder(pathDisplay string) string {
	i := strings.LastIndex(pathDisplay, "/")
	if i < 0 {
		return "/"
	}
	return pathDisplay[:i] + "/"
}

// Package drive searches files with the Google Drive API.
package drive

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/tkgathr2/bulk/internal/adapters/driven/connectors"
	"github.com/tkgathr2/bulk/internal/adapters/driven/connectors/google"
	"github.com/tkgathr2/bulk/internal/core/domain"
	"github.com/tkgathr2/bulk/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

const (
	// MaxPages bounds files.list pagination per search.
	MaxPages = 5

	maxPageSize = 1000

	listFields = "nextPageToken, files(id, name, mimeType, modifiedTime, owners, webViewLink, parents, size, description)"
)

// Config holds configuration for the Drive connector.
type Config struct {
	// Endpoint overrides the API base, e.g. for tests.
	Endpoint   string
	HTTPClient *http.Client
	Limiter    *connectors.RateLimiter
	Logger     *slog.Logger
}

// Connector runs full-text searches over My Drive and shared drives.
type Connector struct {
	service google.ServiceConfig
	limiter *connectors.RateLimiter
	logger  *slog.Logger
}

// New creates a Drive connector.
func New(cfg Config) *Connector {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = connectors.NewRateLimiter(domain.ServiceDrive)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Connector{
		service: google.ServiceConfig{Endpoint: cfg.Endpoint, HTTPClient: cfg.HTTPClient},
		limiter: limiter,
		logger:  logger.With("connector", "drive"),
	}
}

// Service returns the service this connector searches.
func (c *Connector) Service() domain.ServiceID {
	return domain.ServiceDrive
}

// Search pages through files.list until the request window is filled.
func (c *Connector) Search(ctx context.Context, accessToken string, req domain.SearchRequest) *domain.ServiceResult {
	if res := c.limiter.Admit(ctx, domain.ServiceDrive); res != nil {
		return res
	}

	svc, err := google.NewDriveService(ctx, google.NewTokenSource(accessToken), c.service)
	if err != nil {
		return connectors.UnknownError(domain.ServiceDrive, err.Error())
	}

	want := req.Offset + req.Limit
	query := BuildQuery(req)

	var (
		files     []*drive.File
		pageToken string
	)
	for page := 0; page < MaxPages && len(files) < want; page++ {
		call := svc.Files.List().
			Q(query).
			PageSize(int64(min(want-len(files), maxPageSize))).
			Fields(listFields).
			OrderBy("modifiedTime desc").
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return google.ErrorResult(domain.ServiceDrive, err, c.limiter)
		}
		files = append(files, resp.Files...)
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if req.Offset >= len(files) {
		files = nil
	} else {
		files = files[req.Offset:]
	}
	if len(files) > req.Limit {
		files = files[:req.Limit]
	}

	items := make([]domain.ResultItem, 0, len(files))
	for _, f := range files {
		items = append(items, toResultItem(f))
	}
	return domain.SuccessResult(items, req.Offset+len(items), pageToken != "")
}

// mimeFilters maps file types to Drive query clauses.
var mimeFilters = map[domain.FileType]string{
	domain.FileTypeDocument:     "mimeType = 'application/vnd.google-apps.document'",
	domain.FileTypeSpreadsheet:  "mimeType = 'application/vnd.google-apps.spreadsheet'",
	domain.FileTypePresentation: "mimeType = 'application/vnd.google-apps.presentation'",
	domain.FileTypePDF:          "mimeType = 'application/pdf'",
	domain.FileTypeFolder:       "mimeType = 'application/vnd.google-apps.folder'",
	domain.FileTypeImage:        "mimeType contains 'image/'",
	domain.FileTypeVideo:        "mimeType contains 'video/'",
	domain.FileTypeAudio:        "mimeType contains 'audio/'",
	domain.FileTypeArchive:      "mimeType = 'application/zip'",
	domain.FileTypeText:         "mimeType = 'text/plain'",
}

// queryTimeLayout is RFC 3339 without zone; Drive reads it as UTC.
const queryTimeLayout = "2006-01-02T15:04:05"

// BuildQuery translates the request into Drive query syntax.
// The upper bound is the exclusive midnight after date_to, so sub-second
// times in the last second of the day still match.
func BuildQuery(req domain.SearchRequest) string {
	clauses := []string{"fullText contains '" + escape(req.Query) + "'"}
	if from, to, err := req.DateRange(); err == nil {
		if from != nil {
			clauses = append(clauses, "modifiedTime >= '"+from.Format(queryTimeLayout)+"'")
		}
		if to != nil {
			next := to.Truncate(24 * time.Hour).AddDate(0, 0, 1)
			clauses = append(clauses, "modifiedTime < '"+next.Format(queryTimeLayout)+"'")
		}
	}
	if f, ok := mimeFilters[req.FileType]; ok {
		clauses = append(clauses, f)
	}
	clauses = append(clauses, "trashed = false")
	return strings.Join(clauses, " and ")
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toResultItem(f *drive.File) domain.ResultItem {
	label := connectors.TypeLabel(f.MimeType)

	var owner string
	if len(f.Owners) > 0 && f.Owners[0] != nil {
		owner = f.Owners[0].EmailAddress
	}

	snippet := f.Description
	if snippet == "" {
		snippet = label
	}

	url := f.WebViewLink
	if url == "" {
		url = "https://drive.google.com/file/d/" + f.Id + "/view"
	}

	name := f.Name
	if name == "" {
		name = "Untitled"
	}

	var size *int64
	if f.Size > 0 {
		v := f.Size
		size = &v
	}

	parents := f.Parents
	if parents == nil {
		parents = []string{}
	}

	item := domain.ResultItem{
		ID:       "drive-" + f.Id,
		Service:  domain.ServiceDrive,
		Title:    name,
		Snippet:  &snippet,
		Author:   domain.OptionalString(owner),
		URL:      url,
		Kind:     domain.KindFile,
		MimeType: f.MimeType,
		FileSize: size,
		RawMetadata: map[string]any{
			"type_label":  label,
			"mime_type":   f.MimeType,
			"parents":     parents,
			"description": domain.OptionalString(f.Description),
			"owner":       domain.OptionalString(owner),
		},
	}
	if f.ModifiedTime != "" {
		item.UpdatedAt = normalizeTime(f.ModifiedTime)
	}
	return item
}

// normalizeTime re-renders an RFC 3339 time with millisecond precision.
func normalizeTime(s string) *string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return &s
	}
	return domain.TimestampPtr(t)
}

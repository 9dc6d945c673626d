package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxQueryLength is counted in characters, not bytes
	MaxQueryLength = 200
	DefaultLimit   = 20
	MaxLimit       = 100

	// DateLayout is the wire format of date_from / date_to
	DateLayout = "2006-01-02"

	// TimestampLayout is the wire format of every timestamp the API emits
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

// FileType is the enumerated content-type filter
type FileType string

const (
	FileTypeDocument     FileType = "document"
	FileTypeSpreadsheet  FileType = "spreadsheet"
	FileTypePresentation FileType = "presentation"
	FileTypePDF          FileType = "pdf"
	FileTypeImage        FileType = "image"
	FileTypeFolder       FileType = "folder"
	FileTypeVideo        FileType = "video"
	FileTypeAudio        FileType = "audio"
	FileTypeArchive      FileType = "archive"
	FileTypeText         FileType = "text"
	FileTypeOther        FileType = "other"
)

// Valid reports whether f is a known file type
func (f FileType) Valid() bool {
	switch f {
	case FileTypeDocument, FileTypeSpreadsheet, FileTypePresentation, FileTypePDF,
		FileTypeImage, FileTypeFolder, FileTypeVideo, FileTypeAudio,
		FileTypeArchive, FileTypeText, FileTypeOther:
		return true
	}
	return false
}

// SearchRequest is the normalized federated search input
type SearchRequest struct {
	Query    string      `json:"query"`
	Services []ServiceID `json:"services,omitempty"`
	DateFrom string      `json:"date_from,omitempty"`
	DateTo   string      `json:"date_to,omitempty"`
	FileType FileType    `json:"file_type,omitempty"`
	Offset   int         `json:"offset,omitempty"`
	Limit    int         `json:"limit,omitempty"`
}

// Normalize trims the query and applies defaults in place
func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	r.DateFrom = strings.TrimSpace(r.DateFrom)
	r.DateTo = strings.TrimSpace(r.DateTo)

	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}

	if len(r.Services) == 0 {
		r.Services = AllServices()
		return
	}
	seen := make(map[ServiceID]bool, len(r.Services))
	services := make([]ServiceID, 0, len(r.Services))
	for _, s := range r.Services {
		s = ServiceID(strings.ToLower(strings.TrimSpace(string(s))))
		if seen[s] {
			continue
		}
		seen[s] = true
		services = append(services, s)
	}
	r.Services = services
}

// Validate checks the request. Call Normalize first.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrQueryRequired
	}
	if utf8.RuneCountInString(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	for _, s := range r.Services {
		if !s.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownService, s)
		}
	}
	from, to, err := r.DateRange()
	if err != nil {
		return err
	}
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("%w: date_from is after date_to", ErrInvalidInput)
	}
	if r.FileType != "" && !r.FileType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFileType, r.FileType)
	}
	return nil
}

// DateRange returns inclusive UTC bounds: start of date_from and end of date_to.
func (r *SearchRequest) DateRange() (from, to *time.Time, err error) {
	if r.DateFrom != "" {
		t, perr := time.Parse(DateLayout, r.DateFrom)
		if perr != nil {
			return nil, nil, fmt.Errorf("%w: date_from %q", ErrInvalidDate, r.DateFrom)
		}
		from = &t
	}
	if r.DateTo != "" {
		t, perr := time.Parse(DateLayout, r.DateTo)
		if perr != nil {
			return nil, nil, fmt.Errorf("%w: date_to %q", ErrInvalidDate, r.DateTo)
		}
		end := t.Add(24*time.Hour - time.Millisecond)
		to = &end
	}
	return from, to, nil
}

// Filters returns the filter snapshot echoed in responses and history
func (r *SearchRequest) Filters() SearchFilters {
	f := SearchFilters{Services: append([]ServiceID(nil), r.Services...)}
	if r.DateFrom != "" {
		v := r.DateFrom
		f.DateFrom = &v
	}
	if r.DateTo != "" {
		v := r.DateTo
		f.DateTo = &v
	}
	if r.FileType != "" {
		v := r.FileType
		f.FileType = &v
	}
	return f
}

// SearchFilters is the filter snapshot; absent values serialize as null
type SearchFilters struct {
	Services []ServiceID `json:"services"`
	DateFrom *string     `json:"date_from"`
	DateTo   *string     `json:"date_to"`
	FileType *FileType   `json:"file_type"`
}

// DefaultFilters selects every service with no other constraint
func DefaultFilters() SearchFilters {
	return SearchFilters{Services: AllServices()}
}

// ItemKind classifies a result item
type ItemKind string

const (
	KindMessage ItemKind = "message"
	KindEmail   ItemKind = "email"
	KindFile    ItemKind = "file"
)

// ResultItem is one normalized search hit
type ResultItem struct {
	ID        string    `json:"id"`
	Service   ServiceID `json:"service"`
	Title     string    `json:"title"`
	Snippet   *string   `json:"snippet"`
	UpdatedAt *string   `json:"updated_at"`
	Author    *string   `json:"author"`
	URL       string    `json:"url"`
	Kind      ItemKind  `json:"kind"`

	// Slack
	ChannelName string `json:"channel_name,omitempty"`

	// Gmail
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`

	// Dropbox / Drive
	Path     string `json:"path,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize *int64 `json:"file_size,omitempty"`

	RawMetadata map[string]any `json:"raw_metadata,omitempty"`
}

// UpdatedTime parses UpdatedAt. ok is false when absent or malformed.
func (i *ResultItem) UpdatedTime() (time.Time, bool) {
	if i.UpdatedAt == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, *i.UpdatedAt)
	if err != nil {
		t, err = time.Parse(time.RFC3339, *i.UpdatedAt)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}

// FormatTimestamp renders t in TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// TimestampPtr is FormatTimestamp for optional fields. A zero time yields nil.
func TimestampPtr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := FormatTimestamp(t)
	return &s
}

// OptionalString returns nil for an empty string
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ResultStatus is the outcome of one service search
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultPartial ResultStatus = "partial"
	ResultError   ResultStatus = "error"
)

// ErrorCode is the shared error taxonomy for service results
type ErrorCode string

const (
	ErrorAuthRequired ErrorCode = "auth_required"
	ErrorForbidden    ErrorCode = "forbidden"
	ErrorRateLimited  ErrorCode = "rate_limited"
	ErrorNetwork      ErrorCode = "network_error"
	ErrorUnknown      ErrorCode = "unknown_error"
)

// ServiceResult is the per-service outcome.
// Status is error exactly when ErrorCode is set.
type ServiceResult struct {
	Status       ResultStatus `json:"status"`
	Total        *int         `json:"total"`
	Items        []ResultItem `json:"items"`
	ErrorCode    *ErrorCode   `json:"error_code"`
	ErrorMessage *string      `json:"error_message"`
}

// SuccessResult builds a non-error result; more marks it partial
func SuccessResult(items []ResultItem, total int, more bool) *ServiceResult {
	if items == nil {
		items = []ResultItem{}
	}
	status := ResultSuccess
	if more {
		status = ResultPartial
	}
	return &ServiceResult{
		Status: status,
		Total:  &total,
		Items:  items,
	}
}

// ErrorResult builds an error result with no items and a null total
func ErrorResult(code ErrorCode, message string) *ServiceResult {
	return &ServiceResult{
		Status:       ResultError,
		Items:        []ResultItem{},
		ErrorCode:    &code,
		ErrorMessage: &message,
	}
}

// IsError reports whether the result is an error result
func (r *ServiceResult) IsError() bool {
	return r != nil && r.Status == ResultError
}

// Code returns the error code or an empty string
func (r *ServiceResult) Code() ErrorCode {
	if r == nil || r.ErrorCode == nil {
		return ""
	}
	return *r.ErrorCode
}

// Valid checks the status/error_code pairing and the items slice
func (r *ServiceResult) Valid() bool {
	if r == nil || r.Items == nil {
		return false
	}
	switch r.Status {
	case ResultError:
		return r.ErrorCode != nil && len(r.Items) == 0
	case ResultSuccess, ResultPartial:
		return r.ErrorCode == nil
	}
	return false
}

// SearchResponse aggregates one result per requested service
type SearchResponse struct {
	JobID       string                       `json:"job_id"`
	RequestedAt string                       `json:"requested_at"`
	Query       string                       `json:"query"`
	Filters     SearchFilters                `json:"filters"`
	Services    map[ServiceID]*ServiceResult `json:"services"`
}

// MaxHistoryEntries bounds the per-session history ring buffer
const MaxHistoryEntries = 30

// SearchHistoryEntry records one completed search
type SearchHistoryEntry struct {
	ID         string        `json:"id"`
	Query      string        `json:"query"`
	Filters    SearchFilters `json:"filters"`
	SearchedAt string        `json:"searched_at"`
}

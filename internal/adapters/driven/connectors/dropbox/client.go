package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultAPIURL is the Dropbox RPC endpoint host.
const DefaultAPIURL = "https://api.dropboxapi.com"

// tagged is Dropbox's union discriminator.
type tagged struct {
	Tag string `json:".tag"`
}

type searchOptions struct {
	MaxResults     int      `json:"max_results"`
	FileStatus     tagged   `json:"file_status"`
	FilenameOnly   bool     `json:"filename_only"`
	FileCategories []tagged `json:"file_categories,omitempty"`
}

type matchFieldOptions struct {
	IncludeHighlights bool `json:"include_highlights"`
}

type searchArg struct {
	Query             string            `json:"query"`
	Options           searchOptions     `json:"options"`
	MatchFieldOptions matchFieldOptions `json:"match_field_options"`
}

type continueArg struct {
	Cursor string `json:"cursor"`
}

// entryMetadata is a file or folder entry.
type entryMetadata struct {
	Tag            string `json:".tag"`
	ID             string `json:"id"`
	Name           string `json:"name"`
	PathDisplay    string `json:"path_display"`
	ServerModified string `json:"server_modified,omitempty"`
	Size           *int64 `json:"size,omitempty"`
}

type metadataV2 struct {
	Tag      string         `json:".tag"`
	Metadata *entryMetadata `json:"metadata,omitempty"`
}

type searchMatch struct {
	Metadata metadataV2 `json:"metadata"`
}

type searchResult struct {
	Matches []searchMatch `json:"matches"`
	HasMore bool          `json:"has_more"`
	Cursor  string        `json:"cursor,omitempty"`
}

// apiError is a non-2xx Dropbox response.
type apiError struct {
	Status       int
	Header       http.Header
	ErrorSummary string
}

func (e *apiError) Error() string {
	if e.ErrorSummary != "" {
		return fmt.Sprintf("dropbox: %d %s", e.Status, e.ErrorSummary)
	}
	return fmt.Sprintf("dropbox: status %d", e.Status)
}

// rpc POSTs a JSON argument to a Dropbox RPC route and decodes the result.
func rpc(ctx context.Context, client *http.Client, url, accessToken string, arg, out any) error {
	body, err := json.Marshal(arg)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode, Header: resp.Header}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var payload struct {
			ErrorSummary string `json:"error_summary"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.ErrorSummary = payload.ErrorSummary
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package connectors

import (
	"path"
	"strings"

	"github.com/tkgathr2/bulk/internal/core/domain"
)

// FilterByDate drops items outside the request's inclusive date range.
// Items without updated_at are dropped once any bound is set.
func FilterByDate(items []domain.ResultItem, req domain.SearchRequest) []domain.ResultItem {
	from, to, err := req.DateRange()
	if err != nil || (from == nil && to == nil) {
		return items
	}
	out := make([]domain.ResultItem, 0, len(items))
	for _, item := range items {
		t, ok := item.UpdatedTime()
		if !ok {
			continue
		}
		if from != nil && t.Before(*from) {
			continue
		}
		if to != nil && t.After(*to) {
			continue
		}
		out = append(out, item)
	}
	return out
}

var extMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".zip":  "application/zip",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
}

// MimeFromName guesses a MIME type from a file name's extension.
// Returns "" when the extension is unknown.
func MimeFromName(name string) string {
	return extMimeTypes[strings.ToLower(path.Ext(name))]
}

var mimeLabels = map[string]string{
	"application/vnd.google-apps.document":     "Google ドキュメント",
	"application/vnd.google-apps.spreadsheet":  "Google スプレッドシート",
	"application/vnd.google-apps.presentation": "Google スライド",
	"application/vnd.google-apps.folder":       "フォルダ",
	"application/vnd.google-apps.form":         "Google フォーム",
	"application/vnd.google-apps.drawing":      "Google 図形描画",
	"application/pdf":                          "PDF",
	"application/zip":                          "ZIP",
	"text/plain":                               "テキスト",
	"text/csv":                                 "CSV",
}

// TypeLabel is the human-readable label of a MIME type.
func TypeLabel(mimeType string) string {
	if label, ok := mimeLabels[mimeType]; ok {
		return label
	}
	switch {
	case mimeType == "":
		return "ファイル"
	case strings.HasPrefix(mimeType, "image/"):
		return "画像"
	case strings.HasPrefix(mimeType, "video/"):
		return "動画"
	case strings.HasPrefix(mimeType, "audio/"):
		return "音声"
	case strings.Contains(mimeType, "word"):
		return "Word"
	case strings.Contains(mimeType, "excel"), strings.Contains(mimeType, "spreadsheet"):
		return "Excel"
	case strings.Contains(mimeType, "powerpoint"), strings.Contains(mimeType, "presentation"):
		return "PowerPoint"
	}
	return "ファイル"
}

// FolderLabel is the type label used for folders without a MIME type.
const FolderLabel = "フォルダ"

// MatchesFileType reports whether a MIME type belongs to the file type filter.
// An empty filter matches everything.
func MatchesFileType(mimeType string, fileType domain.FileType) bool {
	switch fileType {
	case "":
		return true
	case domain.FileTypeDocument:
		return strings.Contains(mimeType, "document") || strings.Contains(mimeType, "word")
	case domain.FileTypeSpreadsheet:
		return strings.Contains(mimeType, "spreadsheet") || strings.Contains(mimeType, "excel") || mimeType == "text/csv"
	case domain.FileTypePresentation:
		return strings.Contains(mimeType, "presentation") || strings.Contains(mimeType, "powerpoint")
	case domain.FileTypePDF:
		return mimeType == "application/pdf"
	case domain.FileTypeImage:
		return strings.HasPrefix(mimeType, "image/")
	case domain.FileTypeFolder:
		return mimeType == "application/vnd.google-apps.folder"
	case domain.FileTypeVideo:
		return strings.HasPrefix(mimeType, "video/")
	case domain.FileTypeAudio:
		return strings.HasPrefix(mimeType, "audio/")
	case domain.FileTypeArchive:
		return mimeType == "application/zip"
	case domain.FileTypeText:
		return strings.HasPrefix(mimeType, "text/")
	}
	return true
}

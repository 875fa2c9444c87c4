package extract

import (
	"context"
	"path/filepath"
	"strings"

	"gradermate-backend/internal/shared/util"
)

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".csv": true, ".tsv": true,
	".json": true, ".xml": true, ".yaml": true, ".yml": true, ".toml": true,
	".html": true, ".htm": true, ".css": true, ".log": true, ".rtf": true,
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".go": true, ".java": true, ".c": true, ".h": true, ".cpp": true,
	".hpp": true, ".cs": true, ".rb": true, ".php": true, ".rs": true,
	".swift": true, ".kt": true, ".scala": true, ".sh": true, ".bash": true,
	".sql": true, ".r": true, ".m": true, ".ipynb": true,
}

func isTextAttachment(att Attachment) bool {
	mime := strings.ToLower(att.MimeType)
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	switch mime {
	case "application/json", "application/xml", "application/x-yaml",
		"application/javascript", "application/sql":
		return true
	}
	return textExtensions[strings.ToLower(filepath.Ext(att.Filename))]
}

func isDOCXAttachment(att Attachment) bool {
	if strings.EqualFold(att.MimeType, "application/vnd.openxmlformats-officedocument.wordprocessingml.document") {
		return true
	}
	return strings.EqualFold(filepath.Ext(att.Filename), ".docx")
}

func isPDFAttachment(att Attachment) bool {
	if strings.EqualFold(att.MimeType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(att.Filename), ".pdf")
}

// decodeText fetches a plain-text attachment and truncates it to the
// per-attachment character limit.
func (s *Service) decodeText(ctx context.Context, token string, att Attachment) (string, error) {
	data, err := s.fetch(ctx, att.URL, token)
	if err != nil {
		return "", err
	}
	return util.Truncate(strings.TrimSpace(string(data)), textTruncateLimit), nil
}

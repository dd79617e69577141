// Package export renders report documents to concrete file formats and
// saves them through a pluggable file store.
package export

import (
	"context"
	"strings"
	"time"

	"tokodash/backend/internal/domain"
)

// DocumentRenderer turns a report document into file bytes for one format.
type DocumentRenderer interface {
	Render(doc domain.ReportDocument) ([]byte, error)
	Extension() string
}

// FileStore persists a rendered file and returns where it landed. The local
// directory store is the default; swapping in an object-storage
// implementation only touches this boundary.
type FileStore interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
}

// FileName derives the export file name from a report title and generation
// date: spaces become underscores and the ISO date is appended, so files
// sort chronologically per report type.
func FileName(title string, date time.Time, extension string) string {
	base := strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	if base == "" {
		base = "Report"
	}
	return base + "_" + date.UTC().Format("2006-01-02") + "." + strings.TrimPrefix(extension, ".")
}

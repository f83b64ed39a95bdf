package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

const (
	DefaultFilename     = "identity_export.json"
	DefaultXLSXFilename = "identity_export.xlsx"

	JSONContentType = "application/json"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// timestampLayout is RFC3339 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Entry is one completed record in the export artifact.
type Entry struct {
	ID          string        `json:"id"`
	Filename    string        `json:"filename"`
	ProcessedAt string        `json:"processed_at"`
	Extraction  entity.Fields `json:"extraction"`
}

// BuildEntries keeps the completed records, in insertion order.
func BuildEntries(docs []entity.Document) []Entry {
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		if d.Status != constants.StatusCompleted || d.Data == nil {
			continue
		}
		out = append(out, Entry{
			ID:          d.ID,
			Filename:    d.Filename,
			ProcessedAt: FormatTimestamp(d.EnqueuedAt),
			Extraction:  d.Data,
		})
	}
	return out
}

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// MarshalJSON renders entries as a 2-space indented JSON array. An empty export is "[]".
func MarshalJSON(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ParseJSON reads an artifact produced by MarshalJSON.
func ParseJSON(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return entries, nil
}

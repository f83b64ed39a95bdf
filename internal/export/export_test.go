package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type staticSource []entity.Document

func (s staticSource) Snapshot() []entity.Document { return s }

var enqueued = time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.FixedZone("CET", 3600))

func sampleDocs() []entity.Document {
	mk := func(id, name string, status constants.DocumentStatus, data entity.Fields) entity.Document {
		d := entity.Document{ID: id, Filename: name, Status: status, Data: data, EnqueuedAt: enqueued}
		if status == constants.StatusError {
			d.ErrorMessage = constants.ExtractionFailedMessage
		}
		return d
	}
	return []entity.Document{
		mk("a", "invoice.pdf", constants.StatusCompleted, entity.Fields{
			"documentType":    "Invoice",
			"total":           42.5,
			"confidenceScore": 0.92,
			"vendor":          map[string]any{"name": "ACME"},
		}),
		mk("b", "blurry.png", constants.StatusError, nil),
		mk("c", "pending.png", constants.StatusPending, nil),
		mk("d", "passport.jpg", constants.StatusCompleted, entity.Fields{
			"documentType": "Passport",
			"names":        []any{"A", "B"},
		}),
		mk("e", "running.png", constants.StatusProcessing, nil),
	}
}

func TestBuildEntriesKeepsCompletedInOrder(t *testing.T) {
	entries := BuildEntries(sampleDocs())
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].ID)
	assert.Equal(t, "invoice.pdf", entries[0].Filename)
	assert.Equal(t, "2026-03-14T08:26:53.589Z", entries[0].ProcessedAt)
	assert.Equal(t, "d", entries[1].ID)
	assert.Equal(t, "Passport", entries[1].Extraction["documentType"])
}

func TestMarshalJSONEmptyIsArray(t *testing.T) {
	b, err := MarshalJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
	require.NoError(t, ValidateArtifact(b))
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	entries := BuildEntries(sampleDocs())
	b, err := MarshalJSON(entries)
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  {\n    \"id\": \"a\"")
	require.NoError(t, ValidateArtifact(b))

	back, err := ParseJSON(b)
	require.NoError(t, err)
	require.Len(t, back, len(entries))
	for i := range entries {
		assert.Equal(t, entries[i].ID, back[i].ID)
		assert.Equal(t, entries[i].Filename, back[i].Filename)
		assert.Equal(t, entries[i].ProcessedAt, back[i].ProcessedAt)
		assert.Equal(t, entries[i].Extraction.Flatten(), back[i].Extraction.Flatten())
	}
}

func TestValidateArtifactRejectsBadShape(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"object root", `{"id":"a"}`},
		{"missing extraction", `[{"id":"a","filename":"x","processed_at":"2026-01-01T00:00:00.000Z"}]`},
		{"extraction not object", `[{"id":"a","filename":"x","processed_at":"2026-01-01T00:00:00.000Z","extraction":[]}]`},
		{"bad timestamp", `[{"id":"a","filename":"x","processed_at":"yesterday","extraction":{}}]`},
		{"not json", `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateArtifact([]byte(tt.data)))
		})
	}
}

func TestServiceExportJSON(t *testing.T) {
	svc := NewService(staticSource(sampleDocs()), quiet())
	b, err := svc.ExportJSON(context.Background())
	require.NoError(t, err)
	entries, err := ParseJSON(b)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestServiceExportXLSX(t *testing.T) {
	svc := NewService(staticSource(sampleDocs()), quiet())
	b, err := svc.ExportXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Filename", "Processed At", "Document Type", "Confidence", "names.0", "names.1", "total", "vendor.name"}, rows[0])
	assert.Equal(t, "a", rows[1][0])
	assert.Equal(t, "Invoice", rows[1][3])
	assert.Equal(t, "0.92", rows[1][4])
	assert.Equal(t, "42.5", rows[1][7])
	assert.Equal(t, "ACME", rows[1][8])
	assert.Equal(t, "Passport", rows[2][3])
	assert.Equal(t, "A", rows[2][5])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "é…", truncate("ééé", 2))
}

package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
)

// Document represents one selected file and its extraction outcome.
type Document struct {
	ID           string                   `json:"id"`
	BatchID      string                   `json:"batch_id,omitempty"`
	Filename     string                   `json:"filename"`
	MediaType    string                   `json:"media_type"`
	Source       []byte                   `json:"-"`
	Size         int64                    `json:"size"`
	ContentHash  string                   `json:"content_hash,omitempty"`
	Pages        int                      `json:"pages,omitempty"`
	PreviewRef   string                   `json:"preview_ref,omitempty"`
	Status       constants.DocumentStatus `json:"status"`
	Data         Fields                   `json:"data,omitempty"`
	ErrorMessage string                   `json:"error_message,omitempty"`
	Cause        error                    `json:"-"`
	EnqueuedAt   time.Time                `json:"enqueued_at"`
	StartedAt    *time.Time               `json:"started_at,omitempty"`
	FinishedAt   *time.Time               `json:"finished_at,omitempty"`
}

// NewDocument builds a pending record with a fresh ID. It never fails.
func NewDocument(filename, mediaType string, source []byte, now time.Time) Document {
	return Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		MediaType:  mediaType,
		Source:     source,
		Size:       int64(len(source)),
		Status:     constants.StatusPending,
		EnqueuedAt: now.UTC(),
	}
}

// MarshalJSON emits "data" for every completed record, including an empty
// extraction, and omits it for every other status.
func (d Document) MarshalJSON() ([]byte, error) {
	type wire Document
	out := struct {
		wire
		Data any `json:"data,omitempty"`
	}{wire: wire(d)}
	if d.Status == constants.StatusCompleted {
		data := d.Data
		if data == nil {
			data = Fields{}
		}
		out.Data = data
	}
	return json.Marshal(out)
}

// DocumentType returns the model-inferred document type of a completed record.
func (d Document) DocumentType() string {
	t, _ := d.Data.DocumentType()
	return t
}

// Stats summarizes a collection of records for the dashboard header.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// CountStats tallies records by status.
func CountStats(docs []Document) Stats {
	s := Stats{Total: len(docs)}
	for _, d := range docs {
		switch d.Status {
		case constants.StatusPending:
			s.Pending++
		case constants.StatusProcessing:
			s.Processing++
		case constants.StatusCompleted:
			s.Completed++
		case constants.StatusError:
			s.Failed++
		}
	}
	return s
}

// Terminal reports whether every counted record has finished.
func (s Stats) Terminal() bool {
	return s.Pending == 0 && s.Processing == 0
}

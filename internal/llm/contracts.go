package llm

import (
	"context"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

// ExtractRequest carries one document to a multimodal model.
type ExtractRequest struct {
	Data      []byte // raw file bytes; backends encode them as needed
	MediaType string // declared media type, e.g. "image/png" or "application/pdf"
	Filename  string // used for logging only
}

// Extractor turns a document into a free-form JSON object.
// The returned bytes are the cleaned model text, useful for diagnostics even on parse failure.
// Errors are *ExtractionError values classified as transport or malformed response.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (entity.Fields, []byte, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, req ExtractRequest) (entity.Fields, []byte, error)

func (f ExtractorFunc) Extract(ctx context.Context, req ExtractRequest) (entity.Fields, []byte, error) {
	return f(ctx, req)
}

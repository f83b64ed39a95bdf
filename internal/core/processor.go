package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

// Processor runs one extraction for one document record.
type Processor struct {
	logger    *slog.Logger
	extractor llm.Extractor
	timeout   time.Duration
}

func NewProcessor(logger *slog.Logger, extractor llm.Extractor, timeout time.Duration) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:    logger,
		extractor: extractor,
		timeout:   timeout,
	}
}

// Process sends the record's bytes to the extractor and returns the extracted fields.
// It never retries. A zero timeout leaves the deadline to the transport.
func (p *Processor) Process(ctx context.Context, doc entity.Document) (entity.Fields, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	ctx = common.WithRequestID(ctx, doc.ID)
	batchID := common.BatchIDFromContext(ctx)
	start := time.Now()

	fields, raw, err := p.extractor.Extract(ctx, llm.ExtractRequest{
		Data:      doc.Source,
		MediaType: doc.MediaType,
		Filename:  doc.Filename,
	})
	if err != nil {
		kind := llm.KindOf(err)
		if kind == "" && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			err = llm.TransportError("processor.extract", 0, nil, err)
			kind = llm.KindTransport
		}
		p.logger.Error("processor.extract.failed",
			"batch_id", batchID,
			"document_id", doc.ID,
			"filename", doc.Filename,
			"error_kind", kind,
			"raw_len", len(raw),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	docType, _ := fields.DocumentType()
	canon, known := constants.CanonicalizeDocumentType(docType)
	if !known && docType != "" {
		p.logger.Debug("document type not canonical", "document_id", doc.ID, "label", docType)
	}
	p.logger.Info("processor.extract.ok",
		"batch_id", batchID,
		"document_id", doc.ID,
		"filename", doc.Filename,
		"document_type", docType,
		"canonical_type", string(canon),
		"keys", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, nil
}

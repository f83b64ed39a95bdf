package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/store"
)

// DocumentsServer is the read API served as docextract.v1.Documents.
type DocumentsServer interface {
	ListDocuments(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetDocument(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ExportDocuments(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

type DocumentsService struct {
	reader store.Reader
	logger *slog.Logger
}

func NewDocumentsService(reader store.Reader, logger *slog.Logger) *DocumentsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentsService{reader: reader, logger: logger}
}

// ListDocuments returns {"stats": {...}, "documents": [...]} in insertion order.
func (s *DocumentsService) ListDocuments(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	docs := s.reader.Snapshot()
	stats := entity.CountStats(docs)

	list := make([]any, 0, len(docs))
	for _, d := range docs {
		list = append(list, documentToMap(d))
	}
	out, err := structpb.NewStruct(map[string]any{
		"stats": map[string]any{
			"total":      stats.Total,
			"pending":    stats.Pending,
			"processing": stats.Processing,
			"completed":  stats.Completed,
			"failed":     stats.Failed,
		},
		"documents": list,
	})
	if err != nil {
		s.logger.Warn("grpc.list_documents.failed", "req_id", common.RequestIDFromContext(ctx), "err", err)
		return nil, status.Error(codes.Internal, "list documents failed")
	}
	return out, nil
}

func (s *DocumentsService) GetDocument(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := req.GetValue()
	if id == "" {
		return nil, common.ToGRPCError(common.InvalidArgumentError("id is required"))
	}
	d, ok := s.reader.Get(id)
	if !ok {
		return nil, common.ToGRPCError(common.NotFoundErrorf("document %s", id))
	}
	out, err := structpb.NewStruct(documentToMap(d))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ExportDocuments returns the same entries as the JSON export.
func (s *DocumentsService) ExportDocuments(_ context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	entries := export.BuildEntries(s.reader.Snapshot())
	list := make([]any, 0, len(entries))
	for _, e := range entries {
		list = append(list, map[string]any{
			"id":           e.ID,
			"filename":     e.Filename,
			"processed_at": e.ProcessedAt,
			"extraction":   map[string]any(e.Extraction),
		})
	}
	out, err := structpb.NewList(list)
	if err != nil {
		s.logger.Warn("grpc.export_documents.failed", "err", err)
		return nil, status.Error(codes.Internal, "export failed")
	}
	return out, nil
}

func documentToMap(d entity.Document) map[string]any {
	m := map[string]any{
		"id":          d.ID,
		"filename":    d.Filename,
		"media_type":  d.MediaType,
		"size":        d.Size,
		"status":      string(d.Status),
		"enqueued_at": d.EnqueuedAt.UTC().Format(time.RFC3339Nano),
	}
	if d.BatchID != "" {
		m["batch_id"] = d.BatchID
	}
	if d.Pages > 0 {
		m["pages"] = d.Pages
	}
	if d.PreviewRef != "" {
		m["preview_ref"] = d.PreviewRef
	}
	if d.Status == constants.StatusCompleted {
		data := map[string]any(d.Data)
		if data == nil {
			data = map[string]any{}
		}
		m["data"] = data
	}
	if d.ErrorMessage != "" {
		m["error_message"] = d.ErrorMessage
	}
	if d.FinishedAt != nil {
		m["finished_at"] = d.FinishedAt.UTC().Format(time.RFC3339Nano)
	}
	return m
}
